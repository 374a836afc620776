package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText extracts the human-readable text of an HTML document, skipping
// scripts and styles. Href and src attributes are kept so linked indicators
// are still found.
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}

			for _, attr := range n.Attr {
				if attr.Key == "href" || attr.Key == "src" {
					val := strings.TrimSpace(attr.Val)
					if val != "" && !strings.HasPrefix(val, "#") {
						buf.WriteString(val)
						buf.WriteString(" ")
					}
				}
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString("\n")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return buf.String(), nil
}
