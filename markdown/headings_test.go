package markdown

import "testing"

func TestHeadings(t *testing.T) {
	xhtml := []byte(`<h1 id="intro">Introduction</h1><p>text</p><h2 id="sub">A <em>nested</em> title</h2><h3>No ID</h3>`)

	headings, err := Headings(xhtml)
	if err != nil {
		t.Fatalf("Headings failed: %v", err)
	}
	if len(headings) != 3 {
		t.Fatalf("got %d headings, want 3", len(headings))
	}

	if h := headings[0]; h.Level != 1 || h.ID != "intro" || h.Text != "Introduction" {
		t.Errorf("heading 0 = %+v", h)
	}
	if h := headings[1]; h.Level != 2 || h.ID != "sub" || h.Text != "A nested title" {
		t.Errorf("heading 1 = %+v", h)
	}
	if h := headings[2]; h.Level != 3 || h.ID != "" || h.Text != "No ID" {
		t.Errorf("heading 2 = %+v", h)
	}
}

func TestHeadingsFromRender(t *testing.T) {
	out, err := Render("# First\n\n## Second")
	if err != nil {
		t.Fatal(err)
	}

	headings, err := Headings(out)
	if err != nil {
		t.Fatalf("Headings failed: %v", err)
	}
	if len(headings) != 2 {
		t.Fatalf("got %d headings, want 2", len(headings))
	}
	if headings[0].ID == "" || headings[1].ID == "" {
		t.Error("auto heading IDs missing from rendered output")
	}
}
