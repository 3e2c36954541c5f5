package figures

import (
	"strings"
	"testing"

	"github.com/tsawler/paper2epub/model"
)

func TestFindCaptionMarkers(t *testing.T) {
	md := "Some intro text.\nFigure 1: The architecture.\nMore prose about Fig. 2 here.\nFIG. 2: The results.\n"

	markers := findCaptionMarkers(md)
	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}

	if markers[0].number != 1 {
		t.Errorf("first marker number = %d, want 1", markers[0].number)
	}
	if got := md[markers[0].pos:markers[0].lineEnd]; got != "Figure 1: The architecture." {
		t.Errorf("first marker line = %q", got)
	}

	// Figure 2 is mentioned twice; the earliest occurrence wins.
	if markers[1].number != 2 {
		t.Errorf("second marker number = %d, want 2", markers[1].number)
	}
	if !strings.HasPrefix(md[markers[1].pos:], "Fig. 2") {
		t.Errorf("second marker anchored at %q", md[markers[1].pos:markers[1].lineEnd])
	}
}

func TestMatchFiguresCaptioned(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Figure 1: A diagram.\nBody text.\nFigure 2: A chart.\n"})

	figs := []model.Figure{
		{PageIndex: 1, Index: 0, Width: 200, Height: 200, Format: "png"},
		{PageIndex: 1, Index: 1, Width: 200, Height: 200, Format: "png"},
	}

	matches := MatchFigures(figs, doc)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	for i, m := range matches {
		if !m.Captioned {
			t.Errorf("match %d not captioned", i)
		}
		if m.Number != i+1 {
			t.Errorf("match %d number = %d, want %d", i, m.Number, i+1)
		}
	}

	md := doc.Page(1).Markdown
	if got := md[:matches[0].Anchor.Offset]; !strings.HasSuffix(got, "Figure 1: A diagram.") {
		t.Errorf("first anchor not after caption line: %q", got)
	}
	if matches[1].Anchor.Offset <= matches[0].Anchor.Offset {
		t.Error("second anchor should follow the first")
	}
}

func TestMatchFiguresFallbacks(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Prose with no captions.\n"})

	figs := []model.Figure{
		{PageIndex: 1, Index: 0, Width: 200, Height: 200},
		{PageIndex: 3, Index: 0, Width: 200, Height: 200},
	}

	matches := MatchFigures(figs, doc)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	// Page 1 has text but no caption: end of page.
	if matches[0].Captioned {
		t.Error("uncaptioned figure marked captioned")
	}
	if matches[0].Anchor.DocumentEnd() || matches[0].Anchor.Offset >= 0 {
		t.Errorf("anchor = %+v, want end of page 1", matches[0].Anchor)
	}

	// Page 3 produced no text: end of document.
	if !matches[1].Anchor.DocumentEnd() {
		t.Errorf("anchor = %+v, want document end", matches[1].Anchor)
	}
}

func TestMatchFiguresStableOrder(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 2, Markdown: "Figure 1: left.\nFigure 2: right.\n"})

	// Deliberately unsorted input; extraction order must win.
	figs := []model.Figure{
		{PageIndex: 2, Index: 1},
		{PageIndex: 2, Index: 0},
	}

	matches := MatchFigures(figs, doc)
	if matches[0].Index != 0 || matches[0].Number != 1 {
		t.Errorf("first match = index %d number %d, want index 0 number 1",
			matches[0].Index, matches[0].Number)
	}
	if matches[1].Index != 1 || matches[1].Number != 2 {
		t.Errorf("second match = index %d number %d, want index 1 number 2",
			matches[1].Index, matches[1].Number)
	}
}

func TestEachFigureAnchoredOnce(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Figure 1: only one caption.\n"})

	figs := []model.Figure{
		{PageIndex: 1, Index: 0},
		{PageIndex: 1, Index: 1},
		{PageIndex: 2, Index: 0},
	}

	matches := MatchFigures(figs, doc)
	if len(matches) != len(figs) {
		t.Fatalf("got %d matches, want %d", len(matches), len(figs))
	}

	seen := make(map[int]bool)
	for _, m := range matches {
		if seen[m.Number] {
			t.Errorf("figure number %d assigned twice", m.Number)
		}
		seen[m.Number] = true
	}
}

func TestInsertReferences(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Figure 1: A diagram.\nBody text follows."})
	doc.AddPage(model.PageText{PageIndex: 2, Markdown: "Plain page."})

	figs := []model.Figure{
		{PageIndex: 1, Index: 0, Format: "png"},
		{PageIndex: 2, Index: 0, Format: "jpeg"},
		{PageIndex: 5, Index: 0, Format: "png"},
	}

	out := InsertReferences(doc, MatchFigures(figs, doc))

	first := strings.Index(out, "![Figure 1](images/figure_001.png)")
	if first < 0 {
		t.Fatal("missing reference for figure 1")
	}
	caption := strings.Index(out, "Figure 1: A diagram.")
	body := strings.Index(out, "Body text follows.")
	if !(caption < first && first < body) {
		t.Errorf("figure 1 reference not between caption and body: caption=%d ref=%d body=%d",
			caption, first, body)
	}

	second := strings.Index(out, "![Figure 2](images/figure_002.jpeg)")
	if second < 0 {
		t.Fatal("missing reference for figure 2")
	}
	if plain := strings.Index(out, "Plain page."); second < plain {
		t.Error("end-of-page reference should follow the page text")
	}

	third := strings.Index(out, "![Figure 3](images/figure_003.png)")
	if third < 0 {
		t.Fatal("missing reference for figure 3")
	}
	if !strings.Contains(out[third-50:third], "## Figures") {
		t.Error("document-end figure should sit under a Figures heading")
	}
	if third < second || second < first {
		t.Error("references out of order")
	}
}

func TestInsertReferencesSharedCaptionLine(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Figure 1 and Figure 2 share one caption line.\nMore text."})

	figs := []model.Figure{
		{PageIndex: 1, Index: 0, Format: "png"},
		{PageIndex: 1, Index: 1, Format: "png"},
	}

	out := InsertReferences(doc, MatchFigures(figs, doc))

	first := strings.Index(out, "![Figure 1](images/figure_001.png)")
	second := strings.Index(out, "![Figure 2](images/figure_002.png)")
	if first < 0 || second < 0 {
		t.Fatalf("missing references: first=%d second=%d", first, second)
	}
	if second < first {
		t.Error("references with equal anchors rendered out of order")
	}
	if body := strings.Index(out, "More text."); body < second {
		t.Error("references should precede the following line")
	}
}

func TestInsertReferencesNoFigures(t *testing.T) {
	doc := &model.Document{}
	doc.AddPage(model.PageText{PageIndex: 1, Markdown: "Just text."})

	out := InsertReferences(doc, nil)
	if out != "Just text." {
		t.Errorf("output = %q, want unchanged text", out)
	}
	if strings.Contains(out, "## Figures") {
		t.Error("no trailing section expected without figures")
	}
}
