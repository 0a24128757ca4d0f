package pipeline

import (
	"io/fs"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// MaxCandidateSize is the directory-scan size filter (§5): files above this
// are skipped as candidates rather than loaded whole into memory.
const MaxCandidateSize = 250 * humanize.MiByte

// Candidate is one file found during recursive input discovery, with its
// path relative to the scan root so the output side can mirror the tree.
type Candidate struct {
	AbsPath string
	RelPath string
	Size    int64
}

// Discover walks root recursively, collecting files as candidates and
// skipping anything over MaxCandidateSize. Oversized files are reported
// through skip rather than silently dropped so a caller can log them with
// their human-readable size.
func Discover(root string) (candidates []Candidate, skipped []Candidate, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return statErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = d.Name()
		}
		c := Candidate{AbsPath: path, RelPath: rel, Size: info.Size()}
		if info.Size() > MaxCandidateSize {
			skipped = append(skipped, c)
			return nil
		}
		candidates = append(candidates, c)
		return nil
	})
	return candidates, skipped, err
}

// SkipWarning renders a human-readable warning for one oversized candidate;
// the CLI prints it to stderr.
func SkipWarning(c Candidate) string {
	return c.AbsPath + " skipped: " + humanize.Bytes(uint64(c.Size)) + " exceeds the 250 MiB directory-scan limit"
}

// MirrorPath joins an output root with a candidate's relative directory and
// a new basename/extension, implementing §4.4's "recursive input-dir mode
// mirrors the relative directory tree under the output directory" rule.
func MirrorPath(outputRoot string, c Candidate, ext string) string {
	relDir := filepath.Dir(c.RelPath)
	base := c.RelPath[:len(c.RelPath)-len(filepath.Ext(c.RelPath))]
	base = filepath.Base(base)
	if relDir == "." {
		return filepath.Join(outputRoot, base+"."+ext)
	}
	return filepath.Join(outputRoot, relDir, base+"."+ext)
}
