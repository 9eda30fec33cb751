package docxtemplate

import "strings"

// EvaluationContext is the variable-resolution capability §3/§4.4 describe: try_resolve(name),
// with a parent-chain fallback. Two variants implement it: globalContext (root map only) and
// loopContext (loop state + parent fallback), giving lexical scoping with shadowing.
type EvaluationContext interface {
	// TryResolve attempts to resolve name, returning (value, true) on success. A missing
	// variable is (Null, false), never an error (§4.2 — the evaluator never throws for missing
	// variables).
	TryResolve(name string) (Value, bool)

	// Parent returns the enclosing context, or nil at the root.
	Parent() EvaluationContext

	// Root returns the global root data view, for paths that want to escape loop scoping
	// entirely. A loop context returns its parent's root. Resolve and TryResolve do not consult
	// it.
	Root() Value
}

// globalContext wraps the root Map (§4.4 "Global").
type globalContext struct {
	root Value
}

// NewGlobalContext builds the outermost EvaluationContext from the input data.
func NewGlobalContext(root Value) EvaluationContext {
	return &globalContext{root: root}
}

func (g *globalContext) Root() Value { return g.root }

func (g *globalContext) Parent() EvaluationContext { return nil }

func (g *globalContext) TryResolve(name string) (Value, bool) {
	if m, ok := g.root.AsMap(); ok {
		if v, ok := m[name]; ok {
			return v, true
		}
	}
	// otherwise property-path navigation from the root
	if v, ok := Resolve(g.root, name, nil); ok && !isPathMiss(g.root, name) {
		return v, true
	}
	return Null, false
}

// isPathMiss distinguishes "path navigated to an explicit null" from "path could not be
// followed at all" for the direct top-level name case, where Resolve's permissive null-on-any-
// step behavior would otherwise make every unknown top-level name resolve to Null successfully.
func isPathMiss(root Value, name string) bool {
	if !strings.ContainsAny(name, ".[") {
		m, ok := root.AsMap()
		if !ok {
			return true
		}
		_, exists := m[name]
		return !exists
	}
	return false
}

// LoopState is the per-iteration state a loop visitor builds for each element of the iterated
// collection (§3 LoopContext).
type LoopState struct {
	CurrentItem    Value
	Index          int
	Count          int
	CollectionName string
	IterationVar   string // empty if the foreach had no "as NAME" clause
	Parent         *LoopState
}

func (s *LoopState) IsFirst() bool { return s.Index == 0 }
func (s *LoopState) IsLast() bool  { return s.Index == s.Count-1 }

// loopContext implements EvaluationContext for a single loop iteration (§4.4 "Loop").
type loopContext struct {
	state  *LoopState
	parent EvaluationContext
}

// NewLoopContext builds the EvaluationContext for one iteration, chaining to parent.
func NewLoopContext(state *LoopState, parent EvaluationContext) EvaluationContext {
	return &loopContext{state: state, parent: parent}
}

func (l *loopContext) Parent() EvaluationContext { return l.parent }

func (l *loopContext) Root() Value {
	if l.parent != nil {
		return l.parent.Root()
	}
	return Null
}

// TryResolve implements §4.4's four-step resolution order for loop scopes.
func (l *loopContext) TryResolve(name string) (Value, bool) {
	// 1. metadata
	if strings.HasPrefix(name, "@") {
		if v, ok := l.metadata(name); ok {
			return v, true
		}
		return Null, false // unknown @name fails outright, never falls through to parent
	}

	// 2. iteration variable binding ("v" or "v.rest")
	if v := l.state.IterationVar; v != "" {
		if name == v {
			return l.state.CurrentItem, true
		}
		if strings.HasPrefix(name, v+".") {
			rest := name[len(v)+1:]
			if val, ok := resolveAgainstItem(l.state.CurrentItem, rest); ok {
				return val, true
			}
			// fall through to parent: the prefix matched the iteration var but the
			// remainder didn't resolve against the current item.
		}
	}

	// 3. implicit scope: try resolving against the current item directly, including "." / "this"
	if val, ok := resolveAgainstItem(l.state.CurrentItem, name); ok {
		return val, true
	}

	// 4. delegate to parent
	if l.parent != nil {
		return l.parent.TryResolve(name)
	}
	return Null, false
}

func (l *loopContext) metadata(name string) (Value, bool) {
	switch name {
	case "@index":
		return Int(int64(l.state.Index)), true
	case "@first":
		return Bool(l.state.IsFirst()), true
	case "@last":
		return Bool(l.state.IsLast()), true
	case "@count":
		return Int(int64(l.state.Count)), true
	default:
		return Null, false
	}
}

// resolveAgainstItem treats name as a path rooted at item, honoring "." and "this" as aliases
// for the item itself (§4.3).
func resolveAgainstItem(item Value, name string) (Value, bool) {
	if name == "." || name == "this" {
		return item, true
	}
	if rest, ok := stripThisPrefix(name); ok {
		name = rest
	}
	v, ok := Resolve(item, name, nil)
	if !ok {
		return Null, false
	}
	// Distinguish a genuine miss (unresolvable field on a Map) from an explicit Null, mirroring
	// globalContext's isPathMiss treatment for the first path segment.
	if item.Kind() == KindMap && !strings.ContainsAny(name, ".[") {
		m, _ := item.AsMap()
		if _, exists := m[name]; !exists {
			return Null, false
		}
	}
	return v, true
}

func stripThisPrefix(name string) (string, bool) {
	if strings.HasPrefix(name, "this.") {
		return name[len("this."):], true
	}
	if strings.HasPrefix(name, ".") && name != "." {
		return name[len("."):], true
	}
	return name, false
}
