package docxtemplate

import "testing"

func TestApplyLoopClonesContentPerItem(t *testing.T) {
	start := newParagraph("{{#foreach items as item}}")
	body := newParagraph("{{item.name}}")
	end := newParagraph("{{/foreach}}")
	root := newTestBody(start, body, end)

	items := List([]Value{
		Map(map[string]Value{"name": String("alpha")}),
		Map(map[string]Value{"name": String("beta")}),
	})
	ctx := mapCtx(map[string]Value{"items": items})

	block := &LoopBlock{
		CollectionName: "items",
		IterationVar:   strPtr("item"),
		Content:        []*Node{body},
		StartMarker:    start,
		EndMarker:      end,
	}

	result := newResult()
	if err := ApplyLoop(block, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if IsAttached(start) || IsAttached(end) || IsAttached(body) {
		t.Errorf("expected markers and original content removed")
	}

	var texts []string
	for _, p := range ChildElements(root) {
		texts = append(texts, ParagraphText(p))
	}
	if len(texts) != 2 || texts[0] != "alpha" || texts[1] != "beta" {
		t.Fatalf("got %v, want [alpha beta]", texts)
	}
}

func TestApplyLoopMissingCollectionWarnsAndRemovesMarkers(t *testing.T) {
	start := newParagraph("{{#foreach items as item}}")
	body := newParagraph("{{item}}")
	end := newParagraph("{{/foreach}}")
	newTestBody(start, body, end)

	ctx := mapCtx(map[string]Value{})
	block := &LoopBlock{CollectionName: "items", Content: []*Node{body}, StartMarker: start, EndMarker: end}

	result := newResult()
	if err := ApplyLoop(block, ctx, DefaultOptions(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Type != MissingLoopCollection {
		t.Fatalf("got warnings %+v, want one MissingLoopCollection", result.Warnings)
	}
	if IsAttached(start) || IsAttached(end) {
		t.Errorf("expected markers removed even with zero iterations")
	}
}

func TestApplyLoopNonIterableCollectionIsHardFailure(t *testing.T) {
	start := newParagraph("{{#foreach items as item}}")
	body := newParagraph("{{item}}")
	end := newParagraph("{{/foreach}}")
	newTestBody(start, body, end)

	ctx := mapCtx(map[string]Value{"items": String("not a list")})
	block := &LoopBlock{CollectionName: "items", Content: []*Node{body}, StartMarker: start, EndMarker: end}

	result := newResult()
	err := ApplyLoop(block, ctx, DefaultOptions(), result)
	if err == nil {
		t.Fatal("expected a hard failure, got nil")
	}
}
