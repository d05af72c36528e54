package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// NormalizeInput prepares inbound content for extraction. HTML payloads
// are reduced to their visible text; plain text passes through with
// whitespace collapsed.
func NormalizeInput(content string) string {
	if looksLikeHTML(content) {
		if doc, err := html.Parse(strings.NewReader(content)); err == nil {
			return collapseSpaces(visibleText(doc))
		}
	}
	return collapseSpaces(content)
}

func looksLikeHTML(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range []string{"<html", "<body", "<p>", "<p ", "<div", "<article", "<br"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// visibleText extracts text nodes from HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
