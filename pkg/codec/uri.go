package codec

import (
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"

	"specconv/pkg/spectrum"
)

// URIOptions controls the Uri writer's chunking and encoding scheme (§6,
// §4.7). UseUrlSafeBase64 and NoBaseXEncoding are mutually exclusive;
// validated by pkg/cliopts, not here.
type URIOptions struct {
	NumChunks        int
	AsMailToUri      bool
	UseUrlSafeBase64 bool
	NoBaseXEncoding  bool
}

// writeURI is the registry entry for Format Uri: one chunk, base32-encoded,
// no mailto: prefix. The CLI writes Uri output through this entry too, so
// the chunking and encoding choices of WriteURIWithOptions are not used
// there.
func writeURI(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	return WriteURIWithOptions(spec, sel, URIOptions{NumChunks: 1})
}

// WriteURIWithOptions implements the Uri variant: the record set is
// serialized as a compact token string, optionally base32-encoded ("no
// base-X encoding" means emit raw text instead), then split into 1-9
// roughly equal chunks, each optionally prefixed with a mailto: scheme.
func WriteURIWithOptions(spec *spectrum.SpecFile, sel Selection, opts URIOptions) ([]byte, error) {
	if opts.NumChunks < 1 {
		opts.NumChunks = 1
	}
	if opts.NumChunks > 9 {
		return nil, newWriteError(Uri, fmt.Errorf("num-uri must be between 1 and 9, got %d", opts.NumChunks))
	}
	records := selectedRecords(spec, sel)
	if opts.NumChunks > 1 && len(records) > 1 {
		return nil, newWriteError(Uri, fmt.Errorf("num-uri > 1 requires exactly one output record"))
	}

	var payload strings.Builder
	for i, r := range records {
		if i > 0 {
			payload.WriteByte(';')
		}
		fmt.Fprintf(&payload, "%d,%s,%g,%g", r.SampleNumber, r.DetectorName, r.RealTime, r.LiveTime)
		for _, c := range r.GammaCounts {
			fmt.Fprintf(&payload, ",%g", c)
		}
	}

	var encoded string
	switch {
	case opts.NoBaseXEncoding:
		encoded = payload.String()
	case opts.UseUrlSafeBase64:
		encoded = base64.URLEncoding.EncodeToString([]byte(payload.String()))
	default:
		encoded = base32.StdEncoding.EncodeToString([]byte(payload.String()))
	}

	chunks := splitIntoChunks(encoded, opts.NumChunks)
	var out strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			out.WriteByte('\n')
		}
		if opts.AsMailToUri {
			out.WriteString("mailto:")
		}
		out.WriteString(chunk)
	}
	return []byte(out.String()), nil
}

func splitIntoChunks(s string, n int) []string {
	if n <= 1 || len(s) == 0 {
		return []string{s}
	}
	chunkLen := (len(s) + n - 1) / n
	var chunks []string
	for i := 0; i < len(s); i += chunkLen {
		end := i + chunkLen
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}
