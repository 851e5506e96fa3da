package parser

import (
	"strings"
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Quarterly plan\ntags:\n  - finance\n  - q3\n---\nBody text.\n")
	r := Parse(input)
	if r.Title != "Quarterly plan" {
		t.Errorf("title = %q, want %q", r.Title, "Quarterly plan")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "finance" || r.Tags[1] != "q3" {
		t.Errorf("tags = %v, want [finance q3]", r.Tags)
	}
	if r.Body != "Body text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	r := Parse([]byte(input))
	if r.Frontmatter != nil {
		t.Error("expected nil frontmatter for invalid YAML")
	}
	if r.Body != input {
		t.Errorf("body should be the whole input, got %q", r.Body)
	}
}

func TestParse_StringTagsAndInline(t *testing.T) {
	r := Parse([]byte("---\ntags: alpha, beta\n---\nSee #gamma and #alpha.\n"))
	want := []string{"alpha", "beta", "gamma"}
	if strings.Join(r.Tags, ",") != strings.Join(want, ",") {
		t.Errorf("tags = %v, want %v", r.Tags, want)
	}
}

func TestResult_TextIncludesTitleAndTags(t *testing.T) {
	r := Parse([]byte("---\ntitle: Budget\ntags: [plan]\n---\nNumbers go here.\n"))
	text := r.Text()
	if !strings.HasPrefix(text, "Budget\n\nplan\n\n") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "Numbers go here.") {
		t.Errorf("body missing from text %q", text)
	}
}

func TestResult_TextSkipsTitleAlreadyInBody(t *testing.T) {
	r := Parse([]byte("# Heading\ncontent\n"))
	if strings.Count(r.Text(), "Heading") != 1 {
		t.Errorf("title duplicated in %q", r.Text())
	}
}
