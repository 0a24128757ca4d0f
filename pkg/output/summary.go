package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// Writable reports whether path may be written: true unless it already
// exists and forceOverwrite is false (§4.4's collision policy). A
// collision is reported, not an error — the caller marks the run as
// "existing file" and continues with other outputs.
func Writable(path string, forceOverwrite bool) (bool, error) {
	if forceOverwrite {
		return true, nil
	}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Summary accumulates an end-of-run report: written/skipped file counts
// and total bytes, rendered with dustin/go-humanize instead of hand-rolled
// division.
type Summary struct {
	Written    []string
	Skipped    []string // existing-file collisions
	BytesTotal uint64
}

// RecordWritten tracks one successfully written output file.
func (s *Summary) RecordWritten(path string, size int) {
	s.Written = append(s.Written, path)
	s.BytesTotal += uint64(size)
}

// RecordSkipped tracks one output path skipped due to a collision.
func (s *Summary) RecordSkipped(path string) {
	s.Skipped = append(s.Skipped, path)
}

// HadCollision reports whether any output was skipped due to an existing
// file, which drives the CLI's exit code 5 (§4.4, §6).
func (s *Summary) HadCollision() bool { return len(s.Skipped) > 0 }

// Report renders the end-of-run summary line.
func (s *Summary) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s written (%s)", humanize.Comma(int64(len(s.Written))), humanize.Bytes(s.BytesTotal))
	if len(s.Skipped) > 0 {
		fmt.Fprintf(&b, ", %s skipped (existing file)", humanize.Comma(int64(len(s.Skipped))))
	}
	return b.String()
}
