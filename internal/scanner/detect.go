package scanner

import (
	"os"

	"github.com/starford/docfind/internal/checksum"
)

// Classification splits candidate paths by whether they need indexing.
type Classification struct {
	// Process holds new or modified files, and files whose stat failed.
	Process []string
	// Skip holds files whose current id is already indexed.
	Skip []string
}

// Classify computes each path's document id from its path and mtime and
// compares it against known. A stat failure never aborts the pass; the file
// is classified for processing and the pipeline decides what to do with it.
func Classify(paths []string, known map[string]struct{}) Classification {
	var c Classification
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			c.Process = append(c.Process, p)
			continue
		}
		if _, ok := known[docID(p, info)]; ok {
			c.Skip = append(c.Skip, p)
			continue
		}
		c.Process = append(c.Process, p)
	}
	return c
}

func docID(path string, info os.FileInfo) string {
	return checksum.DocumentID(path, info.ModTime())
}
