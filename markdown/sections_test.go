package markdown

import (
	"strings"
	"testing"
)

func TestSplitSections(t *testing.T) {
	source := "Abstract text before any heading.\n\n# Introduction\n\nIntro body.\n\n# Methods\n\nMethod body.\n"

	sections := SplitSections(source, "Paper Title")
	if len(sections) != 3 {
		t.Fatalf("got %d sections, want 3", len(sections))
	}

	if sections[0].Title != "Paper Title" {
		t.Errorf("front matter title = %q, want fallback", sections[0].Title)
	}
	if !strings.Contains(sections[0].Markdown, "Abstract text") {
		t.Errorf("front matter body = %q", sections[0].Markdown)
	}

	if sections[1].Title != "Introduction" {
		t.Errorf("section 1 title = %q", sections[1].Title)
	}
	if !strings.HasPrefix(sections[1].Markdown, "# Introduction") {
		t.Errorf("heading line should stay in section body: %q", sections[1].Markdown)
	}

	if sections[2].Title != "Methods" || !strings.Contains(sections[2].Markdown, "Method body.") {
		t.Errorf("section 2 = %+v", sections[2])
	}
}

func TestSplitSectionsNoHeadings(t *testing.T) {
	sections := SplitSections("Just a paragraph.", "Fallback")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if sections[0].Title != "Fallback" || sections[0].Markdown != "Just a paragraph." {
		t.Errorf("section = %+v", sections[0])
	}
}

func TestSplitSectionsLeadingHeading(t *testing.T) {
	sections := SplitSections("# Only Section\n\nBody.", "unused")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(sections))
	}
	if sections[0].Title != "Only Section" {
		t.Errorf("title = %q", sections[0].Title)
	}
}

func TestSplitSectionsIgnoresFencedHeadings(t *testing.T) {
	source := "# Real\n\n```\n# not a heading\n```\n\nAfter."

	sections := SplitSections(source, "unused")
	if len(sections) != 1 {
		t.Fatalf("got %d sections, want 1: %+v", len(sections), sections)
	}
	if !strings.Contains(sections[0].Markdown, "# not a heading") {
		t.Error("fenced content should survive intact")
	}
}

func TestSplitSectionsEmpty(t *testing.T) {
	sections := SplitSections("", "Title")
	if len(sections) != 1 || sections[0].Title != "Title" {
		t.Fatalf("sections = %+v", sections)
	}
}
