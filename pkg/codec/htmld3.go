package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/klauspost/compress/gzip"

	"specconv/pkg/spectrum"
)

// htmlD3Template renders one chart block per record. The channel array for
// each chart is gzipped and base64-encoded inline rather than embedded as
// a naive JSON array, since multi-record files with many channels can
// otherwise bloat the page considerably. The page's script element holds
// only a comment describing the payload: the page carries no inflation or
// chart-rendering code, so the blocks are not drawn as charts.
var htmlD3Template = template.Must(template.New("html-d3").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{range .Charts}}
<div class="chart" data-sample="{{.Sample}}" data-detector="{{.Detector}}" data-encoding="gzip+base64">
{{.EncodedChannels}}
</div>
{{end}}
<script>
// Each .chart div's text content is a gzip+base64 channel-count payload;
// inflate with DecompressionStream('gzip') before charting.
</script>
</body>
</html>
`))

type htmlChartBlock struct {
	Sample          int
	Detector        string
	EncodedChannels string
}

type htmlPageData struct {
	Title  string
	Charts []htmlChartBlock
}

// writeHtmlD3 implements HtmlD3: one self-contained page with one encoded
// data block per emitted record (§6); the page has no charting script.
func writeHtmlD3(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	data := htmlPageData{Title: spec.Filename}
	for _, r := range selectedRecords(spec, sel) {
		encoded, err := gzipBase64Channels(r.GammaCounts)
		if err != nil {
			return nil, newWriteError(HtmlD3, err)
		}
		data.Charts = append(data.Charts, htmlChartBlock{
			Sample:          r.SampleNumber,
			Detector:        r.DetectorName,
			EncodedChannels: encoded,
		})
	}

	var buf bytes.Buffer
	if err := htmlD3Template.Execute(&buf, data); err != nil {
		return nil, newWriteError(HtmlD3, err)
	}
	return buf.Bytes(), nil
}

// WriteHtmlJSONData implements the HtmlD3 "JSON" sub-mode (§6): a
// single-record output containing just the gzip+base64-encoded data array.
// The CLI does not call it: format tokens json/js/css resolve to HtmlD3
// like html, and are written by writeHtmlD3.
func WriteHtmlJSONData(spec *spectrum.SpecFile, sel Selection) ([]byte, error) {
	records := selectedRecords(spec, sel)
	if len(records) != 1 {
		return nil, newWriteError(HtmlD3, ErrInvalidSelection)
	}
	encoded, err := gzipBase64Channels(records[0].GammaCounts)
	if err != nil {
		return nil, newWriteError(HtmlD3, err)
	}
	out, err := json.Marshal(map[string]string{"channels_gzip_base64": encoded})
	if err != nil {
		return nil, newWriteError(HtmlD3, err)
	}
	return out, nil
}

func gzipBase64Channels(counts []float64) (string, error) {
	var raw bytes.Buffer
	for i, c := range counts {
		if i > 0 {
			raw.WriteByte(' ')
		}
		fmt.Fprintf(&raw, "%g", c)
	}

	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(raw.Bytes()); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(compressed.Bytes()), nil
}
