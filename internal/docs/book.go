// Package docs turns markdown help topics into pages that fit in an embed.
package docs

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// PageLimit is the longest body a page may have, the embed description limit.
const PageLimit = 4096

var (
	ErrUnknownTopic = errors.New("no documentation for that topic")
	ErrNoPage       = errors.New("that page does not exist")
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

type Page struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Book struct {
	Topic string `json:"topic"`
	Pages []Page `json:"pages"`
}

func (b *Book) Page(n int) (Page, error) {
	if n < 0 || n >= len(b.Pages) {
		return Page{}, ErrNoPage
	}
	return b.Pages[n], nil
}

type section struct {
	title      string
	start, end int
}

// ParseBook splits a markdown document into pages at level 1 and 2 headings.
// Text before the first heading becomes a page titled after the topic.
func ParseBook(topic string, source []byte) *Book {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var sections []section
	cur := section{title: topic}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level > 2 {
			continue
		}
		lineStart, lineEnd := headingLine(heading, source)
		cur.end = lineStart
		sections = append(sections, cur)
		cur = section{title: plainText(heading, source), start: lineEnd}
	}
	cur.end = len(source)
	sections = append(sections, cur)

	book := &Book{Topic: topic}
	for i, s := range sections {
		body := strings.TrimSpace(string(source[s.start:s.end]))
		if body == "" && (i == 0 || s.title == "") {
			continue
		}
		parts := splitBody(body, PageLimit)
		for j, part := range parts {
			title := s.title
			if j > 0 {
				title += " (cont.)"
			}
			book.Pages = append(book.Pages, Page{Title: title, Body: part})
		}
	}
	if len(book.Pages) == 0 {
		book.Pages = []Page{{Title: topic}}
	}
	return book
}

func headingLine(h *ast.Heading, source []byte) (int, int) {
	lines := h.Lines()
	if lines.Len() == 0 {
		return 0, 0
	}
	seg := lines.At(0)
	start := bytes.LastIndexByte(source[:seg.Start], '\n') + 1
	end := bytes.IndexByte(source[seg.Stop:], '\n')
	if end < 0 {
		return start, len(source)
	}
	return start, seg.Stop + end + 1
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(source))
			if n.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(n.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// splitBody cuts body into chunks no longer than limit, preferring paragraph
// boundaries, then line breaks, then any rune boundary.
func splitBody(body string, limit int) []string {
	if len(body) <= limit {
		return []string{body}
	}
	var parts []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
	}
	for _, para := range strings.Split(body, "\n\n") {
		sep := 0
		if cur.Len() > 0 {
			sep = 2
		}
		if cur.Len()+sep+len(para) <= limit {
			if sep > 0 {
				cur.WriteString("\n\n")
			}
			cur.WriteString(para)
			continue
		}
		flush()
		for len(para) > limit {
			cut := strings.LastIndexByte(para[:limit], '\n')
			if cut <= 0 {
				cut = limit
				for cut > 0 && !utf8.RuneStart(para[cut]) {
					cut--
				}
			}
			parts = append(parts, strings.TrimSpace(para[:cut]))
			para = strings.TrimLeft(para[cut:], "\n")
		}
		cur.WriteString(para)
	}
	flush()
	return parts
}

// LoadBooks parses every .md file in dir of fsys. The topic is the file name
// without its extension.
func LoadBooks(fsys fs.FS, dir string) (map[string]*Book, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	books := map[string]*Book{}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		topic := strings.TrimSuffix(e.Name(), ".md")
		books[topic] = ParseBook(topic, data)
	}
	return books, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
