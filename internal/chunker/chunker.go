// Package chunker splits document text into overlapping, boundary-aware
// windows measured in runes.
package chunker

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of runes repeated between
// consecutive chunks.
const DefaultChunkOverlap = 100

// separators are tried in order of preference when looking for a cut point.
var separators = [][]rune{
	[]rune("\n\n"),
	[]rune("\n"),
	[]rune(". "),
	[]rune(" "),
}

// Chunker splits text into overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the window size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a Chunker. An overlap not smaller than the chunk size is
// clamped to a quarter of it.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}
	return c
}

// ChunkSize returns the configured window size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Span is a half-open rune range [Start, End) of the input.
type Span struct {
	Start, End int
}

// Split returns the chunk texts of text in order. Empty input yields no
// chunks.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	spans := c.spans(runes)
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = string(runes[s.Start:s.End])
	}
	return out
}

// Spans returns the rune ranges Split would cut text into.
func (c *Chunker) Spans(text string) []Span {
	return c.spans([]rune(text))
}

func (c *Chunker) spans(runes []rune) []Span {
	n := len(runes)
	if n == 0 {
		return nil
	}
	spans := make([]Span, 0, n/(c.chunkSize-c.overlap)+1)

	start := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			spans = append(spans, Span{Start: start, End: n})
			break
		}

		cut := end
		mid := start + c.chunkSize/2
		for _, sep := range separators {
			if idx := lastIndex(runes, sep, start, end); idx > mid {
				cut = idx + len(sep)
				break
			}
		}
		spans = append(spans, Span{Start: start, End: cut})

		next := cut - c.overlap
		if next <= start {
			next = cut
		}
		start = next
	}
	return spans
}

// lastIndex returns the start of the last occurrence of sep wholly inside
// runes[from:to], or -1.
func lastIndex(runes, sep []rune, from, to int) int {
	for i := to - len(sep); i >= from; i-- {
		match := true
		for j, r := range sep {
			if runes[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
