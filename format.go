package docxtemplate

import "github.com/beevik/etree"

// RunProperties wraps a detached, owned w:rPr element (§3). It is always either nil (no
// formatting) or a fully-cloned subtree: callers never alias a live run's properties through it.
type RunProperties struct {
	node *Node
}

// ExtractRunProperties returns a clone of run's w:rPr child, or nil if run carries none.
func ExtractRunProperties(run *Node) *RunProperties {
	rPr := run.SelectElement(TagRunProps)
	if rPr == nil {
		return nil
	}
	return &RunProperties{node: CloneNode(rPr)}
}

// Clone returns an independent deep copy of rp, or nil if rp is nil.
func (rp *RunProperties) Clone() *RunProperties {
	if rp == nil {
		return nil
	}
	return &RunProperties{node: CloneNode(rp.node)}
}

// isEmpty reports whether rp carries no formatting children at all.
func (rp *RunProperties) isEmpty() bool {
	return rp == nil || len(rp.node.ChildElements()) == 0
}

// AttachRunProperties replaces run's existing w:rPr (if any) with a clone of rp, inserted as
// run's first child per WordprocessingML's required rPr-first ordering. A nil rp detaches any
// existing w:rPr.
func AttachRunProperties(run *Node, rp *RunProperties) {
	if existing := run.SelectElement(TagRunProps); existing != nil {
		run.RemoveChild(existing)
	}
	if rp == nil {
		return
	}
	clone := CloneNode(rp.node)
	if len(run.Child) == 0 {
		run.AddChild(clone)
		return
	}
	run.InsertChild(run.Child[0], clone)
}

// ExtractFirstRunProperties walks runs in document order and returns a deep clone of the first
// one's non-empty RunProperties, or nil if none carry any formatting (§4.9 extract_and_clone).
func ExtractFirstRunProperties(runs []*Node) *RunProperties {
	for _, r := range runs {
		if rp := ExtractRunProperties(r); !rp.isEmpty() {
			return rp
		}
	}
	return nil
}

func (rp *RunProperties) child(tag string) *Node {
	if rp == nil {
		return nil
	}
	return rp.node.SelectElement(tag)
}

func (rp *RunProperties) attr(tag, attrName string) string {
	c := rp.child(tag)
	if c == nil {
		return ""
	}
	a := c.SelectAttr(attrName)
	if a == nil {
		return ""
	}
	return a.Value
}

// toggleFlag reports whether a boolean formatting toggle (w:b, w:i, w:strike, …) is "on": present
// with no w:val, or w:val in {"true","1","on"}. Absence, or an explicit false value, is off.
func (rp *RunProperties) toggleFlag(tag string) bool {
	c := rp.child(tag)
	if c == nil {
		return false
	}
	v := c.SelectAttrValue("w:val", "")
	if v == "" {
		return true
	}
	switch v {
	case "false", "0", "off":
		return false
	default:
		return true
	}
}

// RunPropertiesEquivalent implements §4.9's equivalence policy: every listed field must compare
// equal; a nil RunProperties behaves as a record with every field at its zero value.
func RunPropertiesEquivalent(a, b *RunProperties) bool {
	if a.toggleFlag("w:b") != b.toggleFlag("w:b") {
		return false
	}
	if a.toggleFlag("w:i") != b.toggleFlag("w:i") {
		return false
	}
	if a.attr("w:u", "w:val") != b.attr("w:u", "w:val") {
		return false
	}
	if a.attr("w:rFonts", "w:ascii") != b.attr("w:rFonts", "w:ascii") {
		return false
	}
	if a.attr("w:rFonts", "w:hAnsi") != b.attr("w:rFonts", "w:hAnsi") {
		return false
	}
	if a.attr("w:rFonts", "w:eastAsia") != b.attr("w:rFonts", "w:eastAsia") {
		return false
	}
	if a.attr("w:rFonts", "w:cs") != b.attr("w:rFonts", "w:cs") {
		return false
	}
	if a.attr("w:sz", "w:val") != b.attr("w:sz", "w:val") {
		return false
	}
	if a.attr("w:szCs", "w:val") != b.attr("w:szCs", "w:val") {
		return false
	}
	if a.attr("w:color", "w:val") != b.attr("w:color", "w:val") {
		return false
	}
	if a.attr("w:highlight", "w:val") != b.attr("w:highlight", "w:val") {
		return false
	}
	if a.attr("w:shd", "w:fill") != b.attr("w:shd", "w:fill") {
		return false
	}
	return true
}

// MergeMarkdown returns a new RunProperties with bold/italic/strike OR'd onto whatever clone
// already carries (§4.8.3, §4.9 merge_markdown). clone may be nil, producing a fresh record.
func MergeMarkdown(clone *RunProperties, bold, italic, strike bool) *RunProperties {
	out := clone.Clone()
	if out == nil {
		out = &RunProperties{node: etree.NewElement(TagRunProps)}
	}
	if bold {
		setToggle(out.node, "w:b")
	}
	if italic {
		setToggle(out.node, "w:i")
	}
	if strike {
		setToggle(out.node, "w:strike")
	}
	return out
}

func setToggle(rPr *Node, tag string) {
	if rPr.SelectElement(tag) != nil {
		return
	}
	rPr.CreateElement(tag)
}
