package calendar

import (
	"strings"
	"sync"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Node is a document node queryable by relative XPath and attribute name.
// Field resolution only depends on this interface, not on the HTML library behind it.
type Node interface {
	// Query returns the first node matching expr relative to this node, or nil.
	Query(expr string) Node
	// QueryAll returns every node matching expr relative to this node.
	QueryAll(expr string) []Node
	// Attr returns the named attribute, or "" when absent.
	Attr(name string) string
	// Text returns the inner text with runs of XML whitespace collapsed to one space.
	Text() string
}

const nbsp = "\u00a0"

// fallbackAttrs are read, in order, when a cell renders no text
var fallbackAttrs = []string{"data-value", "data-real-value", "title"}

// resolveField reads the cell matched by cellExpr under row: its text, else a
// fallback attribute on the cell, else a fallback attribute on a descendant.
func resolveField(row Node, cellExpr string) string {
	cell := row.Query(cellExpr)
	if cell == nil {
		return ""
	}
	if text := cell.Text(); text != "" && text != nbsp {
		return text
	}
	for _, attr := range fallbackAttrs {
		if v := strings.TrimSpace(cell.Attr(attr)); v != "" {
			return v
		}
	}
	for _, attr := range fallbackAttrs {
		if d := cell.Query(".//*[@" + attr + "]"); d != nil {
			if v := strings.TrimSpace(d.Attr(attr)); v != "" {
				return v
			}
		}
	}
	return ""
}

// htmlNode adapts an x/net/html node to Node using htmlquery
type htmlNode struct {
	n *html.Node
}

// parseFragment parses a run of <tr> elements. The rows are wrapped in a table so the
// HTML parser keeps them instead of dropping stray table markup.
func parseFragment(fragment string) (Node, error) {
	doc, err := htmlquery.Parse(strings.NewReader("<table><tbody>" + fragment + "</tbody></table>"))
	if err != nil {
		return nil, err
	}
	return htmlNode{n: doc}, nil
}

func (h htmlNode) Query(expr string) Node {
	n := htmlquery.QuerySelector(h.n, compile(expr))
	if n == nil {
		return nil
	}
	return htmlNode{n: n}
}

func (h htmlNode) QueryAll(expr string) []Node {
	found := htmlquery.QuerySelectorAll(h.n, compile(expr))
	nodes := make([]Node, 0, len(found))
	for _, n := range found {
		nodes = append(nodes, htmlNode{n: n})
	}
	return nodes
}

func (h htmlNode) Attr(name string) string {
	return htmlquery.SelectAttr(h.n, name)
}

func (h htmlNode) Text() string {
	return normalizeSpace(htmlquery.InnerText(h.n))
}

// normalizeSpace mirrors XPath normalize-space: only space, tab, CR and LF count as
// whitespace, so a cell holding a lone U+00A0 keeps it.
func normalizeSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}), " ")
}

var exprCache sync.Map // string -> *xpath.Expr

// compile returns a cached compiled expression. Expressions are package constants,
// so a compile failure is a programming error.
func compile(expr string) *xpath.Expr {
	if e, ok := exprCache.Load(expr); ok {
		return e.(*xpath.Expr)
	}
	e := xpath.MustCompile(expr)
	exprCache.Store(expr, e)
	return e
}
