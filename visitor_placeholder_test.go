package docxtemplate

import (
	"testing"

	"github.com/beevik/etree"
)

func singleRunParagraph(text string) *Node {
	p := etree.NewElement(TagParagraph)
	r := p.CreateElement(TagRun)
	r.CreateElement(TagText).SetText(text)
	return p
}

func TestApplyPlaceholderSimpleSubstitution(t *testing.T) {
	p := singleRunParagraph("Hello {{name}}!")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{"name": String("Ada")})
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ParagraphText(p); got != "Hello Ada!" {
		t.Errorf("got %q, want %q", got, "Hello Ada!")
	}
	if result.ReplacementCount != 1 {
		t.Errorf("ReplacementCount = %d, want 1", result.ReplacementCount)
	}
}

func TestApplyPlaceholderMissingVariableLeaveUnchanged(t *testing.T) {
	p := singleRunParagraph("Hi {{ghost}}.")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{})
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ParagraphText(p); got != "Hi {{ghost}}." {
		t.Errorf("got %q, want marker left unchanged", got)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Type != MissingVariable {
		t.Errorf("warnings = %+v", result.Warnings)
	}
}

func TestApplyPlaceholderMissingVariableReplaceWithEmpty(t *testing.T) {
	p := singleRunParagraph("Hi {{ghost}}.")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{})
	opts := DefaultOptions()
	opts.MissingVariableBehavior = ReplaceWithEmpty
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, opts, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ParagraphText(p); got != "Hi ." {
		t.Errorf("got %q, want %q", got, "Hi .")
	}
}

func TestApplyPlaceholderMissingVariableThrowException(t *testing.T) {
	p := singleRunParagraph("Hi {{ghost}}.")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{})
	opts := DefaultOptions()
	opts.MissingVariableBehavior = ThrowException
	result := newResult()

	err := ApplyPlaceholder(matches[0], p, ctx, opts, result)
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestApplyPlaceholderExpression(t *testing.T) {
	p := singleRunParagraph("Eligible: {{(age >= 18)}}")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{"age": Int(21)})
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ParagraphText(p); got != "Eligible: True" {
		t.Errorf("got %q, want %q", got, "Eligible: True")
	}
}

// TestApplyPlaceholderMultiRunSpanPreservesNonLeadingBoldFormatting reproduces §8 scenario 5's
// multi-run placeholder case, but with the bold run NOT first in the span — {{Nam plain, e bold,
// }} plain — so a naive "use the first run's w:rPr" implementation would lose the bold formatting
// entirely. The surviving run must carry w:rPr/w:b, from the first non-empty RunProperties found
// anywhere in the span (§4.9 extract_and_clone), not just the leading run's (possibly absent) one.
func TestApplyPlaceholderMultiRunSpanPreservesNonLeadingBoldFormatting(t *testing.T) {
	p := etree.NewElement(TagParagraph)
	r1 := p.CreateElement(TagRun)
	r1.CreateElement(TagText).SetText("{{Nam")
	r2 := p.CreateElement(TagRun)
	r2.CreateElement(TagRunProps).CreateElement("w:b")
	r2.CreateElement(TagText).SetText("e")
	r3 := p.CreateElement(TagRun)
	r3.CreateElement(TagText).SetText("}}")

	matches := DetectPlaceholders(ParagraphText(p))
	if len(matches) != 1 {
		t.Fatalf("got %d placeholder matches, want 1", len(matches))
	}
	ctx := mapCtx(map[string]Value{"Name": String("Ada")})
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ParagraphText(p); got != "Ada" {
		t.Fatalf("got %q, want %q", got, "Ada")
	}

	runs := p.SelectElements(TagRun)
	if len(runs) != 1 {
		t.Fatalf("got %d surviving runs, want 1", len(runs))
	}
	rPr := runs[0].SelectElement(TagRunProps)
	if rPr == nil || rPr.SelectElement("w:b") == nil {
		t.Errorf("surviving run lost bold formatting: rPr=%v", rPr)
	}
}

func TestApplyPlaceholderNewlineSplitsIntoBreaks(t *testing.T) {
	p := singleRunParagraph("Note: {{body}}")
	matches := DetectPlaceholders(ParagraphText(p))
	ctx := mapCtx(map[string]Value{"body": String("line1\nline2")})
	result := newResult()

	if err := ApplyPlaceholder(matches[0], p, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var breaks int
	for _, c := range ChildElements(p) {
		if IsTag(c, TagBreak) {
			breaks++
		}
	}
	if breaks != 1 {
		t.Errorf("got %d w:br elements, want 1", breaks)
	}
	// w:br contributes no characters to ParagraphText (§3's offset semantics), so the two lines
	// appear concatenated in the text view even though they are visually separated.
	if got := ParagraphText(p); got != "Note: line1line2" {
		t.Errorf("got %q", got)
	}
}
