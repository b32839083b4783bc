package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// highlightedClass marks code blocks that already went through the highlighter.
const highlightedClass = "chroma"

// Highlighter syntax-highlights the code blocks of an already sanitized HTML fragment.
// Its output contains only chroma's escaped token spans, so it stays safe.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter returns a Highlighter using the named chroma style.
func NewHighlighter(styleName string) *Highlighter {
	if styleName == "" {
		styleName = DefaultStyle
	}

	return &Highlighter{
		style: styles.Get(styleName),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
	}
}

// WriteCSS writes the stylesheet matching the highlighter's classes.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}

// CodeBlocks highlights every pre > code element of fragment.
func (h *Highlighter) CodeBlocks(fragment string) (string, error) {
	if !strings.Contains(fragment, "<code") {
		return fragment, nil
	}

	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}

	for _, n := range nodes {
		if err := h.walk(n); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render fragment: %w", err)
		}
	}

	return buf.String(), nil
}

func (h *Highlighter) walk(n *html.Node) error {
	if n.Type == html.ElementNode && n.DataAtom == atom.Code &&
		n.Parent != nil && n.Parent.DataAtom == atom.Pre {
		return h.highlightNode(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := h.walk(c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Highlighter) highlightNode(code *html.Node) error {
	class := attr(code, "class")
	if hasClass(class, highlightedClass) {
		return nil
	}

	source := textContent(code)

	highlighted, err := h.highlight(strings.TrimPrefix(class, "language-"), source)
	if err != nil {
		return err
	}

	for c := code.FirstChild; c != nil; {
		next := c.NextSibling
		code.RemoveChild(c)
		c = next
	}
	code.AppendChild(&html.Node{Type: html.RawNode, Data: highlighted})

	setAttr(code, "class", strings.TrimSpace(class+" "+highlightedClass))
	return nil
}

func (h *Highlighter) highlight(language, source string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(source)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("tokenise: %w", err)
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	return buf.String(), nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}
