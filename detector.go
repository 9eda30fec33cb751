package docxtemplate

import (
	"fmt"
	"strings"
)

// PlaceholderMatch is one `{{name}}` / `{{(expr)}}` occurrence found in a text view, with its
// character offsets into that text (§3).
type PlaceholderMatch struct {
	VariableName string
	StartIndex   int
	Length       int
	Format       *string
	IsExpression bool
}

// ConditionalBranch is one `if`/`elseif`/`else` arm of a ConditionalBlock. Condition is nil for
// the else arm.
type ConditionalBranch struct {
	Condition *string
	Content   []*Node
	Marker    *Node
}

// ConditionalBlock is a fully-matched `{{#if}}...{{/if}}` construct (§3). Branches[0].Condition is
// always non-nil; at most one branch has a nil Condition, and if present it is last.
type ConditionalBlock struct {
	Branches     []ConditionalBranch
	EndMarker    *Node
	IsTableRow   bool
	NestingLevel int
}

// LoopBlock is a fully-matched `{{#foreach}}...{{/foreach}}` construct (§3).
type LoopBlock struct {
	CollectionName string
	IterationVar   *string
	Content        []*Node
	StartMarker    *Node
	EndMarker      *Node
	IsTableRow     bool
}

// TemplateSyntaxError reports a structurally unparseable template (§7): unbalanced if/foreach,
// or an elseif/else out of place. This is always a hard failure, never a warning.
type TemplateSyntaxError struct {
	Message string
}

func (e *TemplateSyntaxError) Error() string { return "docxtemplate: " + e.Message }

// IsMarkerParagraph reports whether text contains any control marker (§4.5's definition of
// "marker paragraph"); such a node is skipped by phase 3's placeholder scan since its markers are
// resolved in phases 1-2 instead.
func IsMarkerParagraph(text string) bool {
	for _, sub := range []string{"{{#if", "{{else}}", "{{/if}}", "{{#elseif", "{{#foreach", "{{/foreach}}"} {
		if strings.Contains(text, sub) {
			return true
		}
	}
	return false
}

type braceSpan struct {
	Start, End int // End is exclusive, one past the closing "}}"
	Inner      string
}

// scanBraces finds every top-level "{{...}}" span in text, in order. It does not attempt to
// balance nested braces: the marker grammar never nests "{{" inside another marker, so the first
// "}}" following each "{{" always closes it.
func scanBraces(text string) []braceSpan {
	var spans []braceSpan
	i := 0
	for {
		start := strings.Index(text[i:], "{{")
		if start < 0 {
			break
		}
		start += i
		rel := strings.Index(text[start+2:], "}}")
		if rel < 0 {
			break
		}
		innerEnd := start + 2 + rel
		spans = append(spans, braceSpan{Start: start, End: innerEnd + 2, Inner: text[start+2 : innerEnd]})
		i = innerEnd + 2
	}
	return spans
}

type controlKind int

const (
	ctrlNone controlKind = iota
	ctrlIfStart
	ctrlElseif
	ctrlElse
	ctrlIfEnd
	ctrlForeachStart
	ctrlForeachEnd
)

type controlMarker struct {
	kind       controlKind
	span       braceSpan
	condition  string
	collection string
	iterVar    *string
}

// classifyControl recognizes inner as one of the six control keywords from §4.1's grammar, or
// reports ctrlNone for a placeholder/expression marker.
func classifyControl(inner string) (controlKind, string, string, *string) {
	trimmed := strings.TrimSpace(inner)
	switch {
	case strings.HasPrefix(trimmed, "#if"):
		return ctrlIfStart, strings.TrimSpace(trimmed[len("#if"):]), "", nil
	case strings.HasPrefix(trimmed, "#elseif"):
		return ctrlElseif, strings.TrimSpace(trimmed[len("#elseif"):]), "", nil
	case trimmed == "else":
		return ctrlElse, "", "", nil
	case trimmed == "/if":
		return ctrlIfEnd, "", "", nil
	case strings.HasPrefix(trimmed, "#foreach"):
		rest := strings.TrimSpace(trimmed[len("#foreach"):])
		collection := rest
		var iterVar *string
		if idx := strings.LastIndex(rest, " as "); idx >= 0 {
			collection = strings.TrimSpace(rest[:idx])
			v := strings.TrimSpace(rest[idx+len(" as "):])
			iterVar = &v
		}
		return ctrlForeachStart, "", collection, iterVar
	case trimmed == "/foreach":
		return ctrlForeachEnd, "", "", nil
	default:
		return ctrlNone, "", "", nil
	}
}

// scanControlMarkers returns every control-keyword marker in text, in order, classified and with
// its condition/collection/iteration-variable payload extracted.
func scanControlMarkers(text string) []controlMarker {
	var out []controlMarker
	for _, sp := range scanBraces(text) {
		kind, cond, coll, iterVar := classifyControl(sp.Inner)
		if kind == ctrlNone {
			continue
		}
		out = append(out, controlMarker{kind: kind, span: sp, condition: cond, collection: coll, iterVar: iterVar})
	}
	return out
}

// DetectPlaceholders scans text for placeholder and expression-placeholder markers (§4.1),
// excluding the six control keywords. Offsets are into text itself.
func DetectPlaceholders(text string) []PlaceholderMatch {
	var out []PlaceholderMatch
	for _, sp := range scanBraces(text) {
		trimmed := strings.TrimSpace(sp.Inner)
		if kind, _, _, _ := classifyControl(trimmed); kind != ctrlNone {
			continue
		}
		name, format, isExpr := parsePlaceholderInner(trimmed)
		out = append(out, PlaceholderMatch{
			VariableName: name,
			StartIndex:   sp.Start,
			Length:       sp.End - sp.Start,
			Format:       format,
			IsExpression: isExpr,
		})
	}
	return out
}

// parsePlaceholderInner splits a non-control marker's inner text into its variable/expression
// body and optional ":format" suffix, per §4.1's placeholder/expr-placeholder productions.
func parsePlaceholderInner(inner string) (body string, format *string, isExpr bool) {
	if strings.HasPrefix(inner, "(") {
		depth := 0
		for i, r := range inner {
			switch r {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					body = inner[1:i]
					rest := inner[i+1:]
					if strings.HasPrefix(rest, ":") {
						f := rest[1:]
						format = &f
					}
					return body, format, true
				}
			}
		}
		// unbalanced parens: treat the whole thing as the expression body, no format.
		return inner[1:], nil, true
	}
	if idx := strings.Index(inner, ":"); idx >= 0 {
		f := inner[idx+1:]
		return inner[:idx], &f, false
	}
	return inner, nil, false
}

// MarkerKind identifies one of the six control keywords, for consumers outside this package that
// need to scan a plain string for markers without the node-aware block matching DetectBlocks does
// (the texttmpl package's standalone renderer, in particular).
type MarkerKind int

const (
	MarkerIf MarkerKind = iota
	MarkerElseif
	MarkerElse
	MarkerEndIf
	MarkerForeach
	MarkerEndForeach
)

// ScannedMarker is one control marker found by ScanMarkers, with its character span into the
// scanned text and whatever payload its keyword carries.
type ScannedMarker struct {
	Kind       MarkerKind
	Start, End int
	Condition  string
	Collection string
	IterVar    *string
}

// ScanMarkers finds every control-keyword marker in text, in order (§4.1). It is the exported
// counterpart of scanControlMarkers, for callers (texttmpl) that resolve blocks directly against a
// string instead of a node tree.
func ScanMarkers(text string) []ScannedMarker {
	out := make([]ScannedMarker, 0, 4)
	for _, m := range scanControlMarkers(text) {
		var kind MarkerKind
		switch m.kind {
		case ctrlIfStart:
			kind = MarkerIf
		case ctrlElseif:
			kind = MarkerElseif
		case ctrlElse:
			kind = MarkerElse
		case ctrlIfEnd:
			kind = MarkerEndIf
		case ctrlForeachStart:
			kind = MarkerForeach
		case ctrlForeachEnd:
			kind = MarkerEndForeach
		}
		out = append(out, ScannedMarker{
			Kind: kind, Start: m.span.Start, End: m.span.End,
			Condition: m.condition, Collection: m.collection, IterVar: m.iterVar,
		})
	}
	return out
}

type blockFrameKind int

const (
	frameCond blockFrameKind = iota
	frameLoop
)

type branchAccum struct {
	condition       *string
	marker          *Node
	contentStartIdx int
	content         []*Node
}

type blockFrame struct {
	kind         blockFrameKind
	branches     []branchAccum // cond only
	nestingLevel int           // cond only

	collection      string  // loop only
	iterVar         *string // loop only
	marker          *Node   // loop only: the foreach-start node
	contentStartIdx int     // loop only
}

// nodeEvent pairs a control marker with the index (in the scanned node list) of the node it was
// found in; a single node may host several events (an inline, fully self-contained block).
type nodeEvent struct {
	nodeIdx int
	marker  controlMarker
}

// DetectBlocks scans a flat sibling node list (a container's paragraph children, or a table's row
// children) for conditional and loop blocks (§4.1). isTableRow tags every block found as a
// table-row block or not — the caller knows which, since it chooses whether to pass rows or
// paragraphs. textOf extracts the marker-relevant text for a node (ParagraphText, usually).
func DetectBlocks(nodes []*Node, isTableRow bool, textOf func(*Node) string) ([]*ConditionalBlock, []*LoopBlock, error) {
	var events []nodeEvent
	for i, n := range nodes {
		for _, m := range scanControlMarkers(textOf(n)) {
			events = append(events, nodeEvent{nodeIdx: i, marker: m})
		}
	}

	var conds []*ConditionalBlock
	var loops []*LoopBlock
	var stack []*blockFrame
	condDepth := 0

	for _, ev := range events {
		node := nodes[ev.nodeIdx]
		switch ev.marker.kind {
		case ctrlIfStart:
			cond := ev.marker.condition
			f := &blockFrame{
				kind:         frameCond,
				nestingLevel: condDepth,
				branches: []branchAccum{{
					condition:       &cond,
					marker:          node,
					contentStartIdx: ev.nodeIdx + 1,
				}},
			}
			condDepth++
			stack = append(stack, f)

		case ctrlElseif, ctrlElse:
			if len(stack) == 0 || stack[len(stack)-1].kind != frameCond {
				return nil, nil, &TemplateSyntaxError{Message: "elseif/else outside an open if block"}
			}
			f := stack[len(stack)-1]
			last := &f.branches[len(f.branches)-1]
			if last.condition == nil {
				return nil, nil, &TemplateSyntaxError{Message: "elseif/else following an else branch"}
			}
			last.fill(nodes, ev.nodeIdx)
			if ev.marker.kind == ctrlElseif {
				cond := ev.marker.condition
				f.branches = append(f.branches, branchAccum{condition: &cond, marker: node, contentStartIdx: ev.nodeIdx + 1})
			} else {
				f.branches = append(f.branches, branchAccum{condition: nil, marker: node, contentStartIdx: ev.nodeIdx + 1})
			}

		case ctrlIfEnd:
			if len(stack) == 0 || stack[len(stack)-1].kind != frameCond {
				return nil, nil, &TemplateSyntaxError{Message: "{{/if}} without a matching {{#if}}"}
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			condDepth--
			last := &f.branches[len(f.branches)-1]
			last.fill(nodes, ev.nodeIdx)

			branches := make([]ConditionalBranch, len(f.branches))
			for i, b := range f.branches {
				branches[i] = ConditionalBranch{Condition: b.condition, Content: b.content, Marker: b.marker}
			}
			conds = append(conds, &ConditionalBlock{
				Branches:     branches,
				EndMarker:    node,
				IsTableRow:   isTableRow,
				NestingLevel: f.nestingLevel,
			})

		case ctrlForeachStart:
			stack = append(stack, &blockFrame{
				kind:            frameLoop,
				collection:      ev.marker.collection,
				iterVar:         ev.marker.iterVar,
				marker:          node,
				contentStartIdx: ev.nodeIdx + 1,
			})

		case ctrlForeachEnd:
			if len(stack) == 0 || stack[len(stack)-1].kind != frameLoop {
				return nil, nil, &TemplateSyntaxError{Message: "{{/foreach}} without a matching {{#foreach}}"}
			}
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			loops = append(loops, &LoopBlock{
				CollectionName: f.collection,
				IterationVar:   f.iterVar,
				Content:        append([]*Node(nil), nodes[f.contentStartIdx:ev.nodeIdx]...),
				StartMarker:    f.marker,
				EndMarker:      node,
				IsTableRow:     isTableRow,
			})
		}
	}

	if len(stack) > 0 {
		return nil, nil, &TemplateSyntaxError{Message: fmt.Sprintf("%d unclosed if/foreach block(s)", len(stack))}
	}
	return conds, loops, nil
}

// fill materializes a branch's accumulated content as the sibling-node slice between its
// own marker and the node at endIdx (exclusive on both ends).
func (b *branchAccum) fill(nodes []*Node, endIdx int) {
	if b.contentStartIdx >= endIdx {
		b.content = nil
		return
	}
	b.content = append([]*Node(nil), nodes[b.contentStartIdx:endIdx]...)
}
