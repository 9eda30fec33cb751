package docxtemplate

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// mergeRanges sorts and coalesces overlapping/adjacent half-open [start,end) ranges.
func mergeRanges(ranges [][2]int) [][2]int {
	if len(ranges) == 0 {
		return nil
	}
	sorted := append([][2]int(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i][0] < sorted[j][0] })
	out := [][2]int{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r[0] <= last[1] {
			if r[1] > last[1] {
				last[1] = r[1]
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// subtract returns the sub-intervals of [lo,hi) not covered by any of the (already merged) cuts.
func subtract(lo, hi int, cuts [][2]int) [][2]int {
	var keep [][2]int
	cur := lo
	for _, c := range cuts {
		cs, ce := c[0], c[1]
		if ce <= cur || cs >= hi {
			continue
		}
		if cs > cur {
			keep = append(keep, [2]int{cur, min(cs, hi)})
		}
		if ce > cur {
			cur = ce
		}
	}
	if cur < hi {
		keep = append(keep, [2]int{cur, hi})
	}
	return keep
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func rangeLen(ranges [][2]int) int {
	n := 0
	for _, r := range ranges {
		n += r[1] - r[0]
	}
	return n
}

// DeleteParagraphRanges removes the given character ranges (offsets into ParagraphText(p)) from
// p's runs, preserving the formatting of every surviving character (§4.6's inline-conditional
// rebuild: deletion never recreates a run, it only truncates or drops existing ones).
//
// A run whose contribution is a single w:t is truncated precisely. A run with no w:t (tabs only)
// is dropped if wholly covered, left untouched otherwise — WordprocessingML never splits a single
// tab character, so a partial cut through one has no faithful representation and is left as-is
// rather than guessed at. A run contributing only a w:br has no characters and is never removed.
func DeleteParagraphRanges(p *Node, ranges [][2]int) {
	cuts := mergeRanges(ranges)
	if len(cuts) == 0 {
		return
	}
	for _, rb := range runBoundaries(p) {
		keep := subtract(rb.Start, rb.End, cuts)
		kept := rangeLen(keep)
		total := rb.End - rb.Start
		if kept == total {
			continue
		}
		if kept == 0 {
			RemoveNode(rb.Run)
			continue
		}
		if t := rb.Run.SelectElement(TagText); t != nil {
			original := t.Text()
			var b strings.Builder
			for _, iv := range keep {
				rs, re := iv[0]-rb.Start, iv[1]-rb.Start
				if rs < 0 {
					rs = 0
				}
				if re > len(original) {
					re = len(original)
				}
				if rs < re {
					b.WriteString(original[rs:re])
				}
			}
			t.SetText(b.String())
		}
		// runs with no w:t and a partial (non-zero, non-total) keep: left untouched.
	}
}

// boundaryText returns run's w:t contents, or "" if it carries none.
func boundaryText(run *Node) string {
	if t := run.SelectElement(TagText); t != nil {
		return t.Text()
	}
	return ""
}

// edgeText locates the before-tail and after-head text (§4.8.1 multi-run case) surrounding
// [start,end): the text of the run hosting start, up to start; and the text of the run hosting
// end, from end onward.
func edgeText(bounds []runBoundary, start, end int) (before, after string) {
	for _, rb := range bounds {
		if start >= rb.Start && start < rb.End {
			before = boundaryText(rb.Run)[:start-rb.Start]
		}
	}
	for _, rb := range bounds {
		if end > rb.Start && end <= rb.End {
			text := boundaryText(rb.Run)
			if end-rb.Start <= len(text) {
				after = text[end-rb.Start:]
			}
		}
	}
	return before, after
}

// spanRuns returns, in document order, every run overlapping [start,end) — the candidate set
// §4.9's extract_and_clone scans for the first non-empty RunProperties.
func spanRuns(bounds []runBoundary, start, end int) []*Node {
	var runs []*Node
	for _, rb := range bounds {
		if rb.End > start && rb.Start < end {
			runs = append(runs, rb.Run)
		}
	}
	return runs
}

// spliceParagraphSpan removes every run overlapping [start,end) and inserts newNodes in their
// place, in document order, as children of the same parent those runs occupied.
func spliceParagraphSpan(p *Node, bounds []runBoundary, start, end int, newNodes []*Node) {
	var anchor *Node
	for _, rb := range bounds {
		if rb.End > start && rb.Start < end {
			if anchor == nil {
				anchor = rb.Run
			}
		}
	}
	if anchor == nil {
		for _, rb := range bounds {
			if start <= rb.Start {
				anchor = rb.Run
				break
			}
		}
	}

	parent := p
	if anchor != nil {
		parent = anchor.Parent()
	}
	for _, n := range newNodes {
		if anchor != nil {
			InsertBefore(parent, n, anchor)
		} else {
			parent.AddChild(n)
		}
	}

	for _, rb := range bounds {
		if rb.End > start && rb.Start < end {
			RemoveNode(rb.Run)
		}
	}
}

// ReplaceParagraphRange substitutes the character span [start,end) of p's concatenated text with
// replacement, producing a single new run (§4.8.1). rp supplies the new run's formatting; if nil,
// the first non-empty RunProperties among the span's runs is reused (§4.9 extract_and_clone) —
// not simply whichever run happens to host the span's first character, since that run may itself
// carry no formatting while a later run in the same span does.
func ReplaceParagraphRange(p *Node, start, end int, replacement string, rp *RunProperties) {
	bounds := runBoundaries(p)
	before, after := edgeText(bounds, start, end)
	if rp == nil {
		rp = ExtractFirstRunProperties(spanRuns(bounds, start, end))
	}
	newRun := NewRun(before+replacement+after, rp)
	spliceParagraphSpan(p, bounds, start, end, []*Node{newRun})
}

// ParagraphSegment is one piece of a multi-run replacement (§4.8.3): either a text run carrying
// markdown-derived formatting on top of the base RunProperties, or a line break.
type ParagraphSegment struct {
	Text               string
	IsBreak            bool
	Bold, Italic, Strike bool
}

// ReplaceParagraphRangeSegments substitutes [start,end) with a sequence of runs/breaks (§4.8.3):
// used when the replacement value contains newlines or markdown emphasis. The first and last text
// segments absorb the host runs' before/after text, exactly as ReplaceParagraphRange does.
func ReplaceParagraphRangeSegments(p *Node, start, end int, segments []ParagraphSegment, baseRP *RunProperties) {
	bounds := runBoundaries(p)
	before, after := edgeText(bounds, start, end)
	if baseRP == nil {
		baseRP = ExtractFirstRunProperties(spanRuns(bounds, start, end))
	}

	firstText, lastText := -1, -1
	for i, s := range segments {
		if !s.IsBreak {
			if firstText < 0 {
				firstText = i
			}
			lastText = i
		}
	}

	var nodes []*Node
	for i, s := range segments {
		if s.IsBreak {
			nodes = append(nodes, etree.NewElement(TagBreak))
			continue
		}
		text := s.Text
		if i == firstText {
			text = before + text
		}
		if i == lastText {
			text = text + after
		}
		rp := baseRP
		if s.Bold || s.Italic || s.Strike {
			rp = MergeMarkdown(baseRP, s.Bold, s.Italic, s.Strike)
		}
		nodes = append(nodes, NewRun(text, rp))
	}
	if len(nodes) == 0 {
		nodes = []*Node{NewRun(before+after, baseRP)}
	}
	spliceParagraphSpan(p, bounds, start, end, nodes)
}

// NewRun builds a detached w:r carrying text as a single w:t child, with rp's formatting cloned
// in as its w:rPr (if rp is non-nil).
func NewRun(text string, rp *RunProperties) *Node {
	r := etree.NewElement(TagRun)
	if rp != nil {
		AttachRunProperties(r, rp)
	}
	t := r.CreateElement(TagText)
	t.SetText(text)
	return r
}
