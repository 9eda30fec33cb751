package docxtemplate

import "strings"

// ApplyPlaceholder resolves and substitutes one PlaceholderMatch within its hosting paragraph
// (§4.8). Offsets inside p are assumed valid at call time; the caller (the walker) is responsible
// for processing a paragraph's placeholders in descending start_index order so that an earlier
// substitution never invalidates a later offset.
func ApplyPlaceholder(match PlaceholderMatch, p *Node, ctx EvaluationContext, opts ProcessingOptions, result *Result) error {
	var value Value
	resolved := false

	if match.IsExpression {
		b, err := EvaluateExpression(match.VariableName, ctx)
		if err != nil {
			result.warn(ProcessingWarning{
				Type:    ExpressionFailedWarning,
				Context: match.VariableName,
				Message: err.Error(),
			})
		} else {
			value, resolved = Bool(b), true
		}
	} else {
		value, resolved = ctx.TryResolve(match.VariableName)
	}

	end := match.StartIndex + match.Length
	if !resolved {
		result.warn(ProcessingWarning{
			Type:         MissingVariable,
			VariableName: match.VariableName,
			Message:      "variable not found in data context",
		})
		switch opts.MissingVariableBehavior {
		case LeaveUnchanged:
			return nil
		case ReplaceWithEmpty:
			ReplaceParagraphRange(p, match.StartIndex, end, "", nil)
			result.ReplacementCount++
			return nil
		case ThrowException:
			return newProcessingError(p, &missingVariableError{name: match.VariableName})
		}
		return nil
	}

	str := FormatValue(value, match.Format, opts)
	substitute(p, match.StartIndex, end, str, opts)
	result.ReplacementCount++
	return nil
}

type missingVariableError struct{ name string }

func (e *missingVariableError) Error() string { return "missing variable: " + e.name }

// substitute performs the actual paragraph edit for a resolved placeholder value, choosing plain
// single-run replacement, newline splitting, or markdown splitting per §4.8.3.
func substitute(p *Node, start, end int, value string, opts ProcessingOptions) {
	if opts.EnableNewlineSupport && containsNewline(value) {
		substituteWithNewlines(p, start, end, value)
		return
	}
	if hasMarkdown(value) {
		segs := markdownSegments(value)
		out := make([]ParagraphSegment, len(segs))
		for i, s := range segs {
			out[i] = ParagraphSegment{Text: s.text, Bold: s.bold, Italic: s.italic, Strike: s.strike}
		}
		ReplaceParagraphRangeSegments(p, start, end, out, nil)
		return
	}
	ReplaceParagraphRange(p, start, end, value, nil)
}

func containsNewline(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// substituteWithNewlines splits value on \r\n, \r, \n (longest separator first) and emits a
// text-run/break sequence (§4.8.3). Each line is additionally checked for markdown emphasis.
func substituteWithNewlines(p *Node, start, end int, value string) {
	lines := splitLines(value)
	var segs []ParagraphSegment
	for i, line := range lines {
		if i > 0 {
			segs = append(segs, ParagraphSegment{IsBreak: true})
		}
		if hasMarkdown(line) {
			for _, s := range markdownSegments(line) {
				segs = append(segs, ParagraphSegment{Text: s.text, Bold: s.bold, Italic: s.italic, Strike: s.strike})
			}
		} else {
			segs = append(segs, ParagraphSegment{Text: line})
		}
	}
	ReplaceParagraphRangeSegments(p, start, end, segs, nil)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

type mdSegment struct {
	text                 string
	bold, italic, strike bool
}

func hasMarkdown(s string) bool {
	return strings.Contains(s, "*") || strings.Contains(s, "~~")
}

// markdownSegments splits s on **bold**, *italic*, and ~~strike~~ emphasis markers (§4.8.3),
// non-nesting: each marker toggles its flag for every following segment until a matching close.
func markdownSegments(s string) []mdSegment {
	var segs []mdSegment
	bold, italic, strike := false, false, false
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			segs = append(segs, mdSegment{text: buf.String(), bold: bold, italic: italic, strike: strike})
			buf.Reset()
		}
	}
	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "**"):
			flush()
			bold = !bold
			i += 2
		case strings.HasPrefix(s[i:], "~~"):
			flush()
			strike = !strike
			i += 2
		case s[i] == '*':
			flush()
			italic = !italic
			i++
		default:
			buf.WriteByte(s[i])
			i++
		}
	}
	flush()
	return segs
}
