package docs

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// htmlToMarkdown keeps the parts of a page that read well in an embed:
// headings, paragraphs, list items and preformatted blocks.
func htmlToMarkdown(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	extract(doc, &sb, 0)
	return collapseBlankLines(sb.String()), nil
}

func extract(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 64 {
		return
	}
	switch n.Type {
	case html.TextNode:
		if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
			sb.WriteString(t)
			sb.WriteByte(' ')
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "nav", "footer", "header", "svg", "iframe":
			return
		case "h1":
			sb.WriteString("\n\n# ")
		case "h2":
			sb.WriteString("\n\n## ")
		case "h3", "h4", "h5", "h6":
			sb.WriteString("\n\n**")
		case "p":
			sb.WriteString("\n\n")
		case "br":
			sb.WriteByte('\n')
		case "li":
			sb.WriteString("\n- ")
		case "pre":
			fmt.Fprintf(sb, "\n\n```\n%s\n```\n\n", strings.TrimSpace(textContent(n)))
			return
		case "code":
			fmt.Fprintf(sb, "`%s` ", strings.TrimSpace(textContent(n)))
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extract(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "p":
			sb.WriteString("\n\n")
		case "h3", "h4", "h5", "h6":
			sb.WriteString("**\n\n")
		}
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " ")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
