// Package markdown renders the Markdown produced by the OCR model into
// XHTML fragments suitable for EPUB content documents. LaTeX math spans
// are converted to MathML so equations display without external scripts.
package markdown

import (
	"bytes"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var converter = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		treeblood.MathML(),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithXHTML(),
	),
)

// Render converts a Markdown fragment to XHTML. Inline and display math
// delimited with $ or $$ becomes MathML.
func Render(source string) ([]byte, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(source), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// HasMath reports whether a rendered fragment contains MathML markup.
// EPUB content documents that do are flagged with the "mathml" manifest
// property.
func HasMath(xhtml []byte) bool {
	return bytes.Contains(xhtml, []byte("<math"))
}
