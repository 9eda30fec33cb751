package docxtemplate

// ApplyConditional resolves a ConditionalBlock against ctx, keeping the selected branch's content
// and discarding everything else (§4.6).
func ApplyConditional(block *ConditionalBlock, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	if isInline(block) {
		return applyInlineConditional(block.Branches[0].Marker, ctx, opts, result)
	}

	selected := selectBranch(block.Branches, ctx, result)

	for _, br := range block.Branches {
		RemoveNode(br.Marker)
	}
	RemoveNode(block.EndMarker)

	for i, br := range block.Branches {
		if i == selected {
			continue
		}
		for _, n := range br.Content {
			RemoveNode(n)
		}
	}
	return nil
}

// isInline reports whether block's start and end markers live in the same node — i.e. the whole
// construct fits inside one paragraph's text (§4.6 "Inline conditional").
func isInline(block *ConditionalBlock) bool {
	return block.Branches[0].Marker == block.EndMarker
}

// selectBranch implements §4.6 step 1: the first branch whose condition is true, else the else
// branch if present, else no branch. Returns -1 when nothing is selected.
func selectBranch(branches []ConditionalBranch, ctx EvaluationContext, result *Result) int {
	elseIdx := -1
	for i, br := range branches {
		if br.Condition == nil {
			elseIdx = i
			continue
		}
		ok, err := EvaluateExpression(*br.Condition, ctx)
		if err != nil {
			if result != nil {
				result.warn(ProcessingWarning{
					Type:    ExpressionFailedWarning,
					Context: *br.Condition,
					Message: err.Error(),
				})
			}
			continue
		}
		if ok {
			return i
		}
	}
	return elseIdx
}

// inlineBranch mirrors ConditionalBranch but with text offsets instead of node references, for
// the inline (single-paragraph) resolution path.
type inlineBranch struct {
	condition   *string
	markerSpan  [2]int
	contentSpan [2]int
}

// applyInlineConditional resolves every conditional found in host's own text (§4.6): it computes
// the set of character ranges to delete — every branch marker, plus the content of every
// non-selected branch, recursing into the selected branch's content to resolve any conditional
// nested within it — then deletes them all in one pass so surviving runs keep their original
// formatting untouched.
func applyInlineConditional(host *Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	text := ParagraphText(host)
	markers := scanControlMarkers(text)
	deletions := resolveInlineRange(text, 0, len(text), markers, ctx, opts, result)
	DeleteParagraphRanges(host, deletions)
	return nil
}

// resolveInlineRange finds every top-level if-block within text[lo:hi) (ignoring foreach markers,
// which never participate in an inline conditional) and returns the ranges that must be deleted.
func resolveInlineRange(text string, lo, hi int, markers []controlMarker, ctx EvaluationContext, opts ProcessingOptions, result *Result) [][2]int {
	var deletions [][2]int
	pos := lo
	for {
		branches, endSpan, next, found := nextInlineBlock(markers, pos, hi)
		if !found {
			break
		}
		condBranches := make([]ConditionalBranch, len(branches))
		for i, b := range branches {
			condBranches[i] = ConditionalBranch{Condition: b.condition}
		}
		selected := selectBranch(condBranches, ctx, result)

		for i, b := range branches {
			deletions = append(deletions, b.markerSpan)
			if i != selected {
				deletions = append(deletions, b.contentSpan)
			}
		}
		deletions = append(deletions, endSpan)

		if selected >= 0 {
			sel := branches[selected]
			if sel.contentSpan[1] > sel.contentSpan[0] {
				deletions = append(deletions, resolveInlineRange(text, sel.contentSpan[0], sel.contentSpan[1], markers, ctx, opts, result)...)
			}
		}
		pos = next
	}
	return deletions
}

// nextInlineBlock locates the first complete {{#if}}...{{/if}} construct starting within
// [lo,hi), matching elseif/else only at depth 1 and nested if-starts by simple depth counting
// (§4.1's block-matching rule, specialized to a single paragraph's marker stream).
func nextInlineBlock(markers []controlMarker, lo, hi int) (branches []inlineBranch, endSpan [2]int, next int, found bool) {
	startIdx := -1
	for i, m := range markers {
		if m.kind == ctrlIfStart && m.span.Start >= lo && m.span.Start < hi {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil, [2]int{}, 0, false
	}

	cond := markers[startIdx].condition
	branches = []inlineBranch{{
		condition:   &cond,
		markerSpan:  [2]int{markers[startIdx].span.Start, markers[startIdx].span.End},
		contentSpan: [2]int{markers[startIdx].span.End, hi},
	}}
	depth := 1

	i := startIdx + 1
	for ; i < len(markers); i++ {
		m := markers[i]
		switch m.kind {
		case ctrlIfStart:
			depth++
		case ctrlIfEnd:
			depth--
			if depth == 0 {
				branches[len(branches)-1].contentSpan[1] = m.span.Start
				return branches, [2]int{m.span.Start, m.span.End}, m.span.End, true
			}
		case ctrlElseif:
			if depth == 1 {
				branches[len(branches)-1].contentSpan[1] = m.span.Start
				c := m.condition
				branches = append(branches, inlineBranch{
					condition:   &c,
					markerSpan:  [2]int{m.span.Start, m.span.End},
					contentSpan: [2]int{m.span.End, hi},
				})
			}
		case ctrlElse:
			if depth == 1 {
				branches[len(branches)-1].contentSpan[1] = m.span.Start
				branches = append(branches, inlineBranch{
					condition:   nil,
					markerSpan:  [2]int{m.span.Start, m.span.End},
					contentSpan: [2]int{m.span.End, hi},
				})
			}
		}
	}

	// Unterminated: no matching {{/if}} within range. Treat the block as extending to hi with no
	// end marker removed — the outer node-level detector would already have raised a
	// TemplateSyntaxError in this situation, so this path is unreachable from ApplyConditional.
	branches[len(branches)-1].contentSpan[1] = hi
	return branches, [2]int{hi, hi}, hi, true
}
