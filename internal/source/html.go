package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// consoleSelectors locate the console element across Jenkins views
// (freestyle, pipeline, Blue Ocean), tried in order. .console-output
// matches any element with the class, including pre.
var consoleSelectors = []string{
	".console-output",
	".pipeline-console",
	"#pipeline-console",
	".log-body",
	"pre",
}

// ExtractConsoleText parses an HTML console page and returns the text of
// its console element. A page without one yields the text of the body.
func ExtractConsoleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	for _, selector := range consoleSelectors {
		if node := findElement(doc, selector); node != nil {
			return textContent(node), nil
		}
	}
	if body := findElement(doc, "body"); body != nil {
		return textContent(body), nil
	}
	return "", nil
}

// findElement returns the first element in document order matching a
// simple selector of the form tag, .class, #id or tag.class.
func findElement(n *html.Node, selector string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && matchesSelector(node, selector) {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

func matchesSelector(n *html.Node, selector string) bool {
	if id, ok := strings.CutPrefix(selector, "#"); ok {
		return attr(n, "id") == id
	}
	tag, class, hasClass := strings.Cut(selector, ".")
	if tag != "" && n.Data != tag {
		return false
	}
	if !hasClass {
		return true
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates the text below n, skipping scripts and styles.
// <br> elements become newlines.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			sb.WriteString(node.Data)
			return
		case html.ElementNode:
			switch node.Data {
			case "script", "style":
				return
			case "br":
				sb.WriteByte('\n')
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
