package docxtemplate

// ApplyLoop resolves a LoopBlock against ctx (§4.7): the collection is resolved once, the
// original content is cloned once per element (each clone re-walked under its own LoopContext so
// markers nested inside the loop body are themselves resolved), and the markers plus the original
// template content are discarded, leaving only the materialized clones in their place.
func ApplyLoop(block *LoopBlock, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	items, hardErr := resolveLoopCollection(block, ctx, result)
	if hardErr != nil {
		return newProcessingError(block.StartMarker, hardErr)
	}

	parent := block.StartMarker.Parent()
	anchor := block.EndMarker

	for i, item := range items {
		state := &LoopState{
			CurrentItem:    item,
			Index:          i,
			Count:          len(items),
			CollectionName: block.CollectionName,
		}
		if block.IterationVar != nil {
			state.IterationVar = *block.IterationVar
		}
		iterCtx := NewLoopContext(state, ctx)

		clones := make([]*Node, len(block.Content))
		for j, n := range block.Content {
			clones[j] = CloneNode(n)
		}
		for _, c := range clones {
			InsertBefore(parent, c, anchor)
		}
		if err := rewalkClone(clones, iterCtx, opts, result); err != nil {
			return err
		}
	}

	for _, n := range block.Content {
		RemoveNode(n)
	}
	RemoveNode(block.StartMarker)
	RemoveNode(block.EndMarker)
	return nil
}

// rewalkClone dispatches a freshly cloned iteration body to the right recursive walk: a row-scoped
// loop's content is a run of w:tr elements, which walkNodes wouldn't know what to do with (it only
// recurses into w:p and w:tbl children), so that case goes to walkRows instead.
func rewalkClone(clones []*Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	if len(clones) > 0 && IsTag(clones[0], TagTableRow) {
		return walkRows(clones, ctx, opts, result)
	}
	return walkNodes(clones, ctx, opts, result)
}

// resolveLoopCollection implements §4.7's collection-resolution table: a missing or null
// collection iterates zero times (with a warning, not a failure); anything resolved but not a
// List is a hard failure (ErrNonIterableCollection).
func resolveLoopCollection(block *LoopBlock, ctx EvaluationContext, result *Result) ([]Value, error) {
	v, ok := ctx.TryResolve(block.CollectionName)
	if !ok {
		result.warn(ProcessingWarning{
			Type:         MissingLoopCollection,
			VariableName: block.CollectionName,
			Message:      "loop collection not found in data context",
		})
		return nil, nil
	}
	if v.IsNull() {
		result.warn(ProcessingWarning{
			Type:         NullLoopCollection,
			VariableName: block.CollectionName,
			Message:      "loop collection resolved to null",
		})
		return nil, nil
	}
	list, isList := v.AsList()
	if !isList {
		return nil, ErrNonIterableCollection
	}
	return list, nil
}
