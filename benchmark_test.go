package mdv

import (
	"bytes"
	"strings"
	"testing"
)

var benchmarkDoc = []byte(strings.Join([]string{
	"# Release notes",
	"",
	"A paragraph with **bold**, *italic* and `inline code`, plus a",
	"[link](https://example.com/changelog) for good measure.",
	"",
	"## Changes",
	"",
	"- faster startup",
	"- fewer allocations in the hot path",
	"- tables now wrap at narrow widths",
	"",
	"```go",
	"func main() {",
	"\tfmt.Println(\"hello\")",
	"}",
	"```",
	"",
	"| Area | Status |",
	"| --- | --- |",
	"| parser | done |",
	"| renderer | done |",
}, "\n"))

func BenchmarkRender(b *testing.B) {
	b.ReportAllocs()
	reader := bytes.NewReader(benchmarkDoc)
	var out bytes.Buffer
	out.Grow(len(benchmarkDoc) * 2)
	for i := 0; i < b.N; i++ {
		reader.Reset(benchmarkDoc)
		out.Reset()
		_ = Render(RenderRequest{
			Reader: reader,
			Writer: &out,
			Width:  80,
			Theme:  DefaultTheme(),
		})
	}
}

func BenchmarkRenderNoColors(b *testing.B) {
	b.ReportAllocs()
	reader := bytes.NewReader(benchmarkDoc)
	var out bytes.Buffer
	for i := 0; i < b.N; i++ {
		reader.Reset(benchmarkDoc)
		out.Reset()
		_ = Render(RenderRequest{
			Reader:  reader,
			Writer:  &out,
			Width:   80,
			Theme:   DefaultTheme(),
			Options: []RenderOption{WithNoColors(true)},
		})
	}
}
