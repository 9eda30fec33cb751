package docxtemplate

import "sort"

// WalkBody processes an entire document body (or any container holding paragraphs and tables) in
// place: every conditional, loop, and placeholder marker reachable from it is resolved against
// ctx, and the accumulated outcome is written into result.
func WalkBody(body *Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	return walkNodes(ChildElements(body), ctx, opts, result)
}

// walkNodes runs the three-phase resolution of §4.5 over exactly the given sibling slice: deepest
// conditionals first, then loops in document order, then each remaining paragraph's placeholders
// in descending offset order. It is also the re-walk entry point ApplyLoop calls on a freshly
// cloned iteration body, so nodes is always the full and only universe considered — never widened
// to "all children of the parent", or a sibling loop's other iterations would leak in.
func walkNodes(nodes []*Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	if len(nodes) == 0 {
		return nil
	}

	textOf := func(n *Node) string {
		if IsTag(n, TagParagraph) {
			return ParagraphText(n)
		}
		return ""
	}
	conds, loops, err := DetectBlocks(nodes, false, textOf)
	if err != nil {
		return newProcessingError(nodes[0], err)
	}

	outer := outermostLoops(loops)
	topConds := condsOutsideLoops(conds, outer)
	sort.SliceStable(topConds, func(i, j int) bool { return topConds[i].NestingLevel > topConds[j].NestingLevel })

	for _, c := range topConds {
		if err := ApplyConditional(c, ctx, opts, result); err != nil {
			return err
		}
	}

	sortByPosition(outer, nodes)
	for _, l := range outer {
		if !IsAttached(l.StartMarker) {
			continue // markers belonged to a conditional branch that was just discarded
		}
		if err := ApplyLoop(l, ctx, opts, result); err != nil {
			return err
		}
	}

	for _, n := range attachedOnly(nodes) {
		switch {
		case IsTag(n, TagParagraph):
			if IsMarkerParagraph(ParagraphText(n)) {
				continue
			}
			if err := applyPlaceholdersDescending(n, ctx, opts, result); err != nil {
				return err
			}
		case IsTag(n, TagTable):
			if err := walkTable(n, ctx, opts, result); err != nil {
				return err
			}
		}
	}
	return nil
}

// walkTable resolves row-scoped conditionals and loops (§4.7's table-row handling) before
// recursing into every surviving row's cells as independent containers.
func walkTable(tbl *Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	return walkRows(tableRows(tbl), ctx, opts, result)
}

// walkRows is walkTable's body, factored out so ApplyLoop can re-walk a cloned iteration's rows
// the same way when a LoopBlock's content is itself a run of table rows (a row-scoped loop) rather
// than paragraphs — walkNodes only knows how to recurse into paragraphs and tables, not bare rows.
func walkRows(rows []*Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	if len(rows) == 0 {
		return nil
	}

	textOf := func(n *Node) string { return ParagraphText(n) }
	conds, loops, err := DetectBlocks(rows, true, textOf)
	if err != nil {
		return newProcessingError(rows[0], err)
	}

	// A block whose start and end marker fall in the very same row never spans rows — it is an
	// ordinary single-cell construct that belongs to that cell's own paragraph-level walk, not to
	// the row-removal/row-cloning machinery here.
	rowConds := filterConds(conds, func(b *ConditionalBlock) bool { return b.Branches[0].Marker != b.EndMarker })
	rowLoops := filterLoops(loops, func(l *LoopBlock) bool { return l.StartMarker != l.EndMarker })

	outer := outermostLoops(rowLoops)
	topConds := condsOutsideLoops(rowConds, outer)
	sort.SliceStable(topConds, func(i, j int) bool { return topConds[i].NestingLevel > topConds[j].NestingLevel })

	for _, c := range topConds {
		if err := ApplyConditional(c, ctx, opts, result); err != nil {
			return err
		}
	}

	sortByPosition(outer, rows)
	for _, l := range outer {
		if !IsAttached(l.StartMarker) {
			continue
		}
		if err := ApplyLoop(l, ctx, opts, result); err != nil {
			return err
		}
	}

	for _, row := range attachedOnly(rows) {
		for _, cell := range tableCells(row) {
			if err := walkNodes(ChildElements(cell), ctx, opts, result); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyPlaceholdersDescending(p *Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	matches := DetectPlaceholders(ParagraphText(p))
	for i := len(matches) - 1; i >= 0; i-- {
		if err := ApplyPlaceholder(matches[i], p, ctx, opts, result); err != nil {
			return err
		}
	}
	return nil
}

// outermostLoops returns the subset of loops not themselves nested inside another loop's content
// at this same level — a loop nested in a sibling loop's body is resolved only once per outer
// iteration, by the recursive walkNodes call ApplyLoop makes on each clone.
func outermostLoops(loops []*LoopBlock) []*LoopBlock {
	var outer []*LoopBlock
	for _, l := range loops {
		nested := false
		for _, other := range loops {
			if other == l {
				continue
			}
			if containsNode(other.Content, l.StartMarker) {
				nested = true
				break
			}
		}
		if !nested {
			outer = append(outer, l)
		}
	}
	return outer
}

// condsOutsideLoops drops conditionals whose start marker lies inside one of outer's content
// spans — those belong to a loop iteration's own re-walk, not to this level's conditional phase.
func condsOutsideLoops(conds []*ConditionalBlock, outer []*LoopBlock) []*ConditionalBlock {
	var result []*ConditionalBlock
	for _, c := range conds {
		nested := false
		for _, l := range outer {
			if containsNode(l.Content, c.Branches[0].Marker) {
				nested = true
				break
			}
		}
		if !nested {
			result = append(result, c)
		}
	}
	return result
}

func filterConds(conds []*ConditionalBlock, keep func(*ConditionalBlock) bool) []*ConditionalBlock {
	var out []*ConditionalBlock
	for _, c := range conds {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func filterLoops(loops []*LoopBlock, keep func(*LoopBlock) bool) []*LoopBlock {
	var out []*LoopBlock
	for _, l := range loops {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}

func containsNode(haystack []*Node, needle *Node) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}

// sortByPosition orders loops by their start marker's index within nodes (document order), the
// order in which sibling loops at the same level should be applied. Ties (shouldn't occur for
// distinct markers) keep their relative DetectBlocks order.
func sortByPosition(loops []*LoopBlock, nodes []*Node) {
	index := make(map[*Node]int, len(nodes))
	for i, n := range nodes {
		index[n] = i
	}
	sort.SliceStable(loops, func(i, j int) bool {
		return index[loops[i].StartMarker] < index[loops[j].StartMarker]
	})
}

func attachedOnly(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if IsAttached(n) {
			out = append(out, n)
		}
	}
	return out
}
