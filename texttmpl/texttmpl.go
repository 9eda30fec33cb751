// Package texttmpl is the standalone text-template mode described as an external collaborator in
// §1: it runs the same marker grammar, expression evaluator, and context chain as the document
// engine, but against a plain string instead of a *etree.Element tree — no walker, no visitors,
// no run-splicing. It exists because a caller with a plain string template (an email body, a
// chat-bot prompt) shouldn't have to wrap it in a fake WordprocessingML document just to reuse the
// evaluator.
package texttmpl

import (
	"strings"

	"github.com/arborly/docxtemplate"
)

// Render substitutes every placeholder, conditional, and loop marker in s against ctx (§4.11).
func Render(s string, ctx docxtemplate.EvaluationContext, opts docxtemplate.ProcessingOptions) (string, docxtemplate.Result, error) {
	result := docxtemplate.Result{IsSuccess: true, MissingVariables: make(map[string]struct{})}
	markers := docxtemplate.ScanMarkers(s)

	out, err := render(s, 0, len(s), markers, ctx, opts, &result)
	if err != nil {
		result.IsSuccess = false
		result.ErrorMessage = err.Error()
		return "", result, err
	}
	return out, result, nil
}

// branch is one if/elseif/else arm, with string offsets instead of node references.
type branch struct {
	condition    *string
	contentStart int
	contentEnd   int
}

func render(text string, lo, hi int, markers []docxtemplate.ScannedMarker, ctx docxtemplate.EvaluationContext, opts docxtemplate.ProcessingOptions, result *docxtemplate.Result) (string, error) {
	var b strings.Builder
	pos := lo
	for {
		idx := nextBlockStart(markers, pos, hi)
		if idx < 0 {
			seg, err := renderPlaceholders(text[pos:hi], ctx, opts, result)
			if err != nil {
				return "", err
			}
			b.WriteString(seg)
			break
		}
		m := markers[idx]
		seg, err := renderPlaceholders(text[pos:m.Start], ctx, opts, result)
		if err != nil {
			return "", err
		}
		b.WriteString(seg)

		if m.Kind == docxtemplate.MarkerIf {
			branches, endPos, next := parseIfBlock(markers, idx, hi)
			selected := selectBranch(branches, ctx, result)
			if selected >= 0 {
				sel := branches[selected]
				if sel.contentEnd > sel.contentStart {
					inner, err := render(text, sel.contentStart, sel.contentEnd, markers, ctx, opts, result)
					if err != nil {
						return "", err
					}
					b.WriteString(inner)
				}
			}
			_ = endPos
			pos = next
		} else {
			contentStart, contentEnd, collection, iterVar, next := parseForeachBlock(markers, idx, hi)
			items, hardErr := resolveCollection(collection, ctx, result)
			if hardErr != nil {
				return "", hardErr
			}
			for i, item := range items {
				state := &docxtemplate.LoopState{
					CurrentItem:    item,
					Index:          i,
					Count:          len(items),
					CollectionName: collection,
				}
				if iterVar != nil {
					state.IterationVar = *iterVar
				}
				iterCtx := docxtemplate.NewLoopContext(state, ctx)
				inner, err := render(text, contentStart, contentEnd, markers, iterCtx, opts, result)
				if err != nil {
					return "", err
				}
				b.WriteString(inner)
			}
			pos = next
		}
	}
	return b.String(), nil
}

// nextBlockStart returns the index (into markers) of the first if-start or foreach-start marker
// within [lo,hi), or -1.
func nextBlockStart(markers []docxtemplate.ScannedMarker, lo, hi int) int {
	for i, m := range markers {
		if (m.Kind == docxtemplate.MarkerIf || m.Kind == docxtemplate.MarkerForeach) && m.Start >= lo && m.Start < hi {
			return i
		}
	}
	return -1
}

// parseIfBlock mirrors docxtemplate's inline conditional matcher, operating on ScannedMarker
// offsets instead of controlMarker: depth-count from the if-start at markers[start] to its
// matching endif, splitting branches at elseif/else seen at depth 1.
func parseIfBlock(markers []docxtemplate.ScannedMarker, start, hi int) (branches []branch, endPos, next int) {
	cond := markers[start].Condition
	branches = []branch{{condition: &cond, contentStart: markers[start].End, contentEnd: hi}}
	depth := 1
	for i := start + 1; i < len(markers); i++ {
		m := markers[i]
		switch m.Kind {
		case docxtemplate.MarkerIf:
			depth++
		case docxtemplate.MarkerEndIf:
			depth--
			if depth == 0 {
				branches[len(branches)-1].contentEnd = m.Start
				return branches, m.Start, m.End
			}
		case docxtemplate.MarkerElseif:
			if depth == 1 {
				branches[len(branches)-1].contentEnd = m.Start
				c := m.Condition
				branches = append(branches, branch{condition: &c, contentStart: m.End, contentEnd: hi})
			}
		case docxtemplate.MarkerElse:
			if depth == 1 {
				branches[len(branches)-1].contentEnd = m.Start
				branches = append(branches, branch{condition: nil, contentStart: m.End, contentEnd: hi})
			}
		}
	}
	branches[len(branches)-1].contentEnd = hi
	return branches, hi, hi
}

// parseForeachBlock finds the matching endforeach for the foreach-start at markers[start], by
// simple depth counting over nested foreach markers (if markers inside are left alone; they are
// resolved by the recursive render call over the loop body, under the per-iteration context).
func parseForeachBlock(markers []docxtemplate.ScannedMarker, start, hi int) (contentStart, contentEnd int, collection string, iterVar *string, next int) {
	collection = markers[start].Collection
	iterVar = markers[start].IterVar
	contentStart = markers[start].End
	depth := 1
	for i := start + 1; i < len(markers); i++ {
		m := markers[i]
		switch m.Kind {
		case docxtemplate.MarkerForeach:
			depth++
		case docxtemplate.MarkerEndForeach:
			depth--
			if depth == 0 {
				return contentStart, m.Start, collection, iterVar, m.End
			}
		}
	}
	return contentStart, hi, collection, iterVar, hi
}

func selectBranch(branches []branch, ctx docxtemplate.EvaluationContext, result *docxtemplate.Result) int {
	elseIdx := -1
	for i, br := range branches {
		if br.condition == nil {
			elseIdx = i
			continue
		}
		ok, err := docxtemplate.EvaluateExpression(*br.condition, ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, docxtemplate.ProcessingWarning{
				Type: docxtemplate.ExpressionFailedWarning, Context: *br.condition, Message: err.Error(),
			})
			continue
		}
		if ok {
			return i
		}
	}
	return elseIdx
}

func resolveCollection(name string, ctx docxtemplate.EvaluationContext, result *docxtemplate.Result) ([]docxtemplate.Value, error) {
	v, ok := ctx.TryResolve(name)
	if !ok {
		result.Warnings = append(result.Warnings, docxtemplate.ProcessingWarning{
			Type: docxtemplate.MissingLoopCollection, VariableName: name, Message: "loop collection not found in data context",
		})
		return nil, nil
	}
	if v.IsNull() {
		result.Warnings = append(result.Warnings, docxtemplate.ProcessingWarning{
			Type: docxtemplate.NullLoopCollection, VariableName: name, Message: "loop collection resolved to null",
		})
		return nil, nil
	}
	list, isList := v.AsList()
	if !isList {
		return nil, docxtemplate.ErrNonIterableCollection
	}
	return list, nil
}

// renderPlaceholders substitutes every {{name}}/{{(expr)}} marker in segment — segment never
// contains a control marker, by construction of the caller's loop. A ThrowException-missing
// variable fails the whole render (§4.8 step 3), so this returns an error rather than a bare
// string.
func renderPlaceholders(segment string, ctx docxtemplate.EvaluationContext, opts docxtemplate.ProcessingOptions, result *docxtemplate.Result) (string, error) {
	matches := docxtemplate.DetectPlaceholders(segment)
	if len(matches) == 0 {
		return segment, nil
	}
	var b strings.Builder
	pos := 0
	for _, m := range matches {
		b.WriteString(segment[pos:m.StartIndex])
		out, err := renderOne(m, ctx, opts, result)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
		pos = m.StartIndex + m.Length
	}
	b.WriteString(segment[pos:])
	return b.String(), nil
}

func renderOne(match docxtemplate.PlaceholderMatch, ctx docxtemplate.EvaluationContext, opts docxtemplate.ProcessingOptions, result *docxtemplate.Result) (string, error) {
	var value docxtemplate.Value
	resolved := false

	if match.IsExpression {
		v, err := docxtemplate.EvaluateExpression(match.VariableName, ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, docxtemplate.ProcessingWarning{
				Type: docxtemplate.ExpressionFailedWarning, Context: match.VariableName, Message: err.Error(),
			})
		} else {
			value, resolved = docxtemplate.Bool(v), true
		}
	} else {
		value, resolved = ctx.TryResolve(match.VariableName)
	}

	if !resolved {
		result.Warnings = append(result.Warnings, docxtemplate.ProcessingWarning{
			Type: docxtemplate.MissingVariable, VariableName: match.VariableName, Message: "variable not found in data context",
		})
		result.MissingVariables[match.VariableName] = struct{}{}
		switch opts.MissingVariableBehavior {
		case docxtemplate.ReplaceWithEmpty:
			result.ReplacementCount++
			return "", nil
		case docxtemplate.ThrowException:
			return "", &missingVariableError{name: match.VariableName}
		default: // LeaveUnchanged
			return "{{" + rawMarkerBody(match) + "}}", nil
		}
	}

	result.ReplacementCount++
	return docxtemplate.FormatValue(value, match.Format, opts), nil
}

// missingVariableError is texttmpl's ThrowException failure (§4.8 step 3), mirroring the tree
// engine's own unexported missing-variable error.
type missingVariableError struct{ name string }

func (e *missingVariableError) Error() string { return "missing variable: " + e.name }

// rawMarkerBody reconstructs the original marker text for the LeaveUnchanged case, since the
// string renderer (unlike the tree walker) never keeps the original bytes once it has matched a
// placeholder span.
func rawMarkerBody(match docxtemplate.PlaceholderMatch) string {
	body := match.VariableName
	if match.IsExpression {
		body = "(" + body + ")"
	}
	if match.Format != nil {
		return body + ":" + *match.Format
	}
	return body
}
