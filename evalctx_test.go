package docxtemplate

import "testing"

func TestGlobalContextResolvesTopLevelAndPath(t *testing.T) {
	ctx := NewGlobalContext(Map(map[string]Value{
		"name":    String("Ada"),
		"address": Map(map[string]Value{"city": String("London")}),
	}))

	if v, ok := ctx.TryResolve("name"); !ok || v.String() != "Ada" {
		t.Errorf("name = %v, %v", v, ok)
	}
	if v, ok := ctx.TryResolve("address.city"); !ok || v.String() != "London" {
		t.Errorf("address.city = %v, %v", v, ok)
	}
	if _, ok := ctx.TryResolve("missing"); ok {
		t.Errorf("expected missing to be unresolved")
	}
}

func TestLoopContextMetadataAndIterationVar(t *testing.T) {
	parent := NewGlobalContext(Map(map[string]Value{"company": String("Acme")}))
	state := &LoopState{
		CurrentItem:  Map(map[string]Value{"name": String("Bo")}),
		Index:        1,
		Count:        3,
		IterationVar: "it",
	}
	ctx := NewLoopContext(state, parent)

	if v, ok := ctx.TryResolve("@index"); !ok || v.String() != "1" {
		t.Errorf("@index = %v, %v", v, ok)
	}
	if v, ok := ctx.TryResolve("@first"); !ok || v.String() != "False" {
		t.Errorf("@first = %v, %v", v, ok)
	}
	if v, ok := ctx.TryResolve("it.name"); !ok || v.String() != "Bo" {
		t.Errorf("it.name = %v, %v", v, ok)
	}
	if v, ok := ctx.TryResolve("company"); !ok || v.String() != "Acme" {
		t.Errorf("company (parent fallback) = %v, %v", v, ok)
	}
	if _, ok := ctx.TryResolve("@bogus"); ok {
		t.Errorf("expected unknown @name to fail outright")
	}
}

func TestLoopContextShadowsParent(t *testing.T) {
	parent := NewGlobalContext(Map(map[string]Value{"it": String("outer-shadowed")}))
	state := &LoopState{CurrentItem: String("inner"), IterationVar: "it", Count: 1}
	ctx := NewLoopContext(state, parent)

	v, ok := ctx.TryResolve("it")
	if !ok || v.String() != "inner" {
		t.Errorf("it = %v, %v, want inner (shadowing parent)", v, ok)
	}
}
