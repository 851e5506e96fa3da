package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "collapses whitespace", in: "a \t\n\n b", want: "a b"},
		{name: "trims", in: "  \n hello \r\n", want: "hello"},
		{name: "strips control", in: "he\x00ll\x07o\x1b", want: "hello"},
		{name: "empty", in: " \t ", want: ""},
		{name: "keeps unicode", in: "Grüße  café", want: "Grüße café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestClean_Truncates(t *testing.T) {
	in := strings.Repeat("é", MaxContentRunes+500)
	out := Clean(in)
	assert.Equal(t, MaxContentRunes, utf8.RuneCountInString(out))
}

func TestClean_NoTrailingSpaceAtLimit(t *testing.T) {
	in := strings.Repeat("a", MaxContentRunes-1) + " b"
	out := Clean(in)
	assert.False(t, strings.HasSuffix(out, " "))
	assert.LessOrEqual(t, utf8.RuneCountInString(out), MaxContentRunes)
}
