package trajectory

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ExtractEnvState returns the text of the first <pre> element of a finish
// page, which is where evaluation sites publish their final state. ok is
// false when the page has no <pre>.
func ExtractEnvState(r io.Reader) (raw string, ok bool, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", false, fmt.Errorf("failed to parse finish page: %w", err)
	}

	pre := findElement(doc, "pre")
	if pre == nil {
		return "", false, nil
	}

	var builder strings.Builder
	collectText(pre, &builder)
	return strings.TrimSpace(builder.String()), true, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, builder *strings.Builder) {
	if n.Type == html.TextNode {
		builder.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, builder)
	}
}
