package checksum

import (
	"testing"
	"time"
)

func TestDocumentID_Deterministic(t *testing.T) {
	mt := time.Unix(1700000000, 123)
	a := DocumentID("/data/report.pdf", mt)
	b := DocumentID("/data/report.pdf", mt)
	if a != b {
		t.Fatalf("ids differ: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("id length = %d, want 32", len(a))
	}
}

func TestDocumentID_ChangesWithMtime(t *testing.T) {
	mt := time.Unix(1700000000, 0)
	a := DocumentID("/data/report.pdf", mt)
	b := DocumentID("/data/report.pdf", mt.Add(time.Second))
	if a == b {
		t.Error("id should change when mtime changes")
	}
	c := DocumentID("/data/other.pdf", mt)
	if a == c {
		t.Error("id should change when path changes")
	}
}
