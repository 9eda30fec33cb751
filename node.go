// Package docxtemplate is a template-evaluation engine for WordprocessingML documents: given a
// document tree carrying {{...}} markers and a data Value, it rewrites marker-bearing regions in
// place while leaving the rest of the tree untouched.
package docxtemplate

import (
	"strings"

	"github.com/beevik/etree"
)

// Node is the document tree's unit of manipulation. The engine never needs more than what
// etree.Element already exposes: read text content, read/clone formatting, insert/remove
// relative to a parent, and discover whether a node is still attached. Wrapping an XML library
// instead of hand-rolling an arena-of-records keeps the OOXML element model (namespaces,
// attribute order, unknown elements) exactly as the host container produced it.
type Node = etree.Element

// WordprocessingML tag names the engine knows how to interpret. Every other tag is preserved
// opaquely: ParagraphText recurses into its children, so their text is part of a paragraph's
// text view, but the walker descends only into w:p and w:tbl children of the node lists it is
// given, and no element of another tag is rewritten.
const (
	TagBody      = "w:body"
	TagParagraph = "w:p"
	TagRun       = "w:r"
	TagRunProps  = "w:rPr"
	TagText      = "w:t"
	TagTab       = "w:tab"
	TagBreak     = "w:br"
	TagTable     = "w:tbl"
	TagTableRow  = "w:tr"
	TagTableCell = "w:tc"
)

// IsTag reports whether n's fully-qualified tag ("w:p", "w:r", …) equals want. etree splits a
// "prefix:local" source tag into Space/Tag at parse time, so FullTag() is what reconstructs the
// form the constants above are written in.
func IsTag(n *Node, want string) bool {
	if n == nil {
		return false
	}
	return n.FullTag() == want
}

// IsAttached reports whether n still has a parent link. A node whose parent is nil is considered
// already removed from the tree (§3 invariants): PlaceholderMatch/ConditionalBlock/LoopBlock
// hold bare references to live nodes, and the walker must treat a detached node's block as
// already processed rather than re-processing or panicking on a nil parent.
func IsAttached(n *Node) bool {
	return n != nil && n.Parent() != nil
}

// InsertBefore inserts newChild as a child of parent, immediately before oldChild. oldChild may
// be nil, appending newChild at the end.
func InsertBefore(parent, newChild, oldChild *Node) {
	parent.InsertChild(oldChild, newChild)
}

// InsertAfter inserts newChild as a child of parent, immediately after oldChild. oldChild must be
// a current child of parent.
func InsertAfter(parent, newChild, oldChild *Node) {
	idx := oldChild.Index()
	if idx < 0 || idx+1 >= len(parent.Child) {
		parent.AddChild(newChild)
		return
	}
	parent.InsertChild(parent.Child[idx+1], newChild)
}

// RemoveNode detaches n from its parent, if any. It is a no-op if n is already detached.
func RemoveNode(n *Node) {
	if n == nil {
		return
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// CloneNode returns a deep copy of n, fully detached from the original tree. Clones never share
// mutable state with the source node (§3 invariant): etree.Copy already performs a deep,
// allocation-fresh copy of the element and its attribute/child slices.
func CloneNode(n *Node) *Node {
	return n.Copy()
}

// ChildElements returns the direct child elements of n (skipping character data, comments, and
// processing instructions), in document order.
func ChildElements(n *Node) []*Node {
	return n.ChildElements()
}

// innerText concatenates the textual content of a node in document order: w:t runs contribute
// their character data, every w:tab contributes a literal tab (no tab is ever omitted), and w:br
// contributes nothing (breaks do not participate in character offsets).
func innerText(n *Node) string {
	var b strings.Builder
	collectInnerText(n, &b)
	return b.String()
}

func collectInnerText(n *Node, b *strings.Builder) {
	for _, child := range n.Child {
		switch c := child.(type) {
		case *etree.CharData:
			b.WriteString(c.Data)
		case *etree.Element:
			switch {
			case IsTag(c, TagText):
				b.WriteString(c.Text())
			case IsTag(c, TagTab):
				b.WriteString("\t")
			case IsTag(c, TagBreak):
				// breaks contribute no characters
			default:
				collectInnerText(c, b)
			}
		}
	}
}

// ParagraphText returns the concatenation of a paragraph's (or row's, or cell's) run text in
// document order — the text view the marker detector and placeholder visitor scan over.
func ParagraphText(n *Node) string {
	return innerText(n)
}

// runBoundary is one entry of the run-boundary map built by the placeholder visitor (§4.8.1):
// the half-open character range [Start, End) of run's contribution to the paragraph's
// concatenated text.
type runBoundary struct {
	Start, End int
	Run        *Node
}

// runBoundaries walks n's w:r children in document order and returns the character range each
// run occupies within ParagraphText(n). Only w:r elements participate; anything else (bookmarks,
// proofErr, etc.) is skipped for offset purposes but left untouched in the tree.
func runBoundaries(n *Node) []runBoundary {
	var bounds []runBoundary
	pos := 0
	for _, child := range ChildElements(n) {
		if !IsTag(child, TagRun) {
			continue
		}
		text := runText(child)
		bounds = append(bounds, runBoundary{Start: pos, End: pos + len(text), Run: child})
		pos += len(text)
	}
	return bounds
}

// runText returns a single run's textual contribution (its w:t content, a tab, or nothing for a
// break), matching the per-run slice of ParagraphText's concatenation.
func runText(run *Node) string {
	var b strings.Builder
	for _, child := range ChildElements(run) {
		switch {
		case IsTag(child, TagText):
			b.WriteString(child.Text())
		case IsTag(child, TagTab):
			b.WriteString("\t")
		}
	}
	return b.String()
}

// tableRows returns the w:tr children of a w:tbl element, in document order.
func tableRows(tbl *Node) []*Node {
	var rows []*Node
	for _, child := range ChildElements(tbl) {
		if IsTag(child, TagTableRow) {
			rows = append(rows, child)
		}
	}
	return rows
}

// tableCells returns the w:tc children of a w:tr element, in document order.
func tableCells(row *Node) []*Node {
	var cells []*Node
	for _, child := range ChildElements(row) {
		if IsTag(child, TagTableCell) {
			cells = append(cells, child)
		}
	}
	return cells
}

// paragraphsOf returns the direct w:p children of a container element (body, cell, …), in
// document order.
func paragraphsOf(n *Node) []*Node {
	var ps []*Node
	for _, child := range ChildElements(n) {
		if IsTag(child, TagParagraph) {
			ps = append(ps, child)
		}
	}
	return ps
}
