package markdown

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Heading is a heading found in a rendered XHTML fragment.
type Heading struct {
	// Level is 1 for h1 through 6 for h6.
	Level int
	// ID is the element's id attribute, used as the navigation target.
	ID string
	// Text is the heading's flattened text content.
	Text string
}

// Headings returns the headings of a rendered fragment in document order.
func Headings(xhtml []byte) ([]Heading, error) {
	doc, err := html.Parse(bytes.NewReader(xhtml))
	if err != nil {
		return nil, err
	}

	var headings []Heading
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && len(n.Data) == 2 && n.Data[0] == 'h' &&
			n.Data[1] >= '1' && n.Data[1] <= '6' {
			h := Heading{Level: int(n.Data[1] - '0'), Text: nodeText(n)}
			for _, attr := range n.Attr {
				if attr.Key == "id" {
					h.ID = attr.Val
				}
			}
			headings = append(headings, h)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return headings, nil
}

// nodeText flattens the text content of a node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return strings.TrimSpace(sb.String())
}
