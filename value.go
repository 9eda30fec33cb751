package docxtemplate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind tags the variant stored in a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDate
	KindList
	KindMap
	KindObject
)

// Value is the tagged union §3 requires all resolved data to be pre-shaped into: the resolver
// navigates Null/Bool/Int/Float/String/Date/List/Map/Object, and uses reflection only for a
// FieldStep applied to an Object (see reflectField).
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	list []Value
	m    map[string]Value
	obj  any
}

// Null is the zero Value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value        { return Value{kind: KindBool, b: b} }
func Int(i int64) Value        { return Value{kind: KindInt, i: i} }
func Float(f float64) Value    { return Value{kind: KindFloat, f: f} }
func String(s string) Value    { return Value{kind: KindString, s: s} }
func Date(t time.Time) Value   { return Value{kind: KindDate, t: t} }
func List(vs []Value) Value    { return Value{kind: KindList, list: vs} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}

// Object wraps an opaque Go value (one that is neither a Value-shaped primitive nor container),
// addressed reflectively by the property-path resolver's FieldStep only. Kept as an escape hatch
// for the rare field the input data doesn't pre-shape; §4.3 and §9 intend Map/List to be the norm.
func Object(v any) Value { return Value{kind: KindObject, obj: v} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool)       { return v.b, v.kind == KindBool }
func (v Value) AsInt() (int64, bool)       { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)   { return v.f, v.kind == KindFloat }
func (v Value) AsString() (string, bool)   { return v.s, v.kind == KindString }
func (v Value) AsDate() (time.Time, bool)  { return v.t, v.kind == KindDate }
func (v Value) AsList() ([]Value, bool)    { return v.list, v.kind == KindList }
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }
func (v Value) AsObject() (any, bool)      { return v.obj, v.kind == KindObject }

// Len reports the number of elements for List/Map, and 0 otherwise (used by truthiness).
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Truthy implements §4.2's truthiness table.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindString:
		trimmed := strings.TrimSpace(v.s)
		if trimmed == "" {
			return false
		}
		lower := strings.ToLower(trimmed)
		if lower == "false" || lower == "0" {
			return false
		}
		return true
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindList, KindMap:
		return v.Len() > 0
	default:
		return true
	}
}

// String renders v's "string form", the single representation §4.2 uses for equality comparisons
// and §4.8 uses as the un-formatted fallback for substitution.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindDate:
		return v.t.Format(time.RFC3339)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + v.m[k].String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	case KindObject:
		return fmt.Sprint(v.obj)
	default:
		return ""
	}
}

// EqualString implements §4.2's equality policy: both sides compared "by string form" regardless
// of underlying kind. This is an explicit, documented design choice (§9 open questions) carried
// over as-is — numeric equality of 1 and 1.0 depends on the input's original string form.
func EqualString(a, b Value) bool {
	return a.String() == b.String()
}

// asFloat64ForComparison returns v as a float64 for the numeric comparison operators: Int and
// Float values directly, anything else by parsing its string form (§4.2: "parsing both sides as a double; on parse failure the predicate is false").
func asFloat64ForComparison(v Value) (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FromJSON parses a JSON document into the Value union per §6: integral numbers become Int,
// others Float, objects become Map, arrays become List, null becomes Null.
func FromJSON(data []byte) (Value, error) {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Null, fmt.Errorf("docxtemplate: parse json: %w", err)
	}
	return fromAny(raw), nil
}

func fromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null
	case bool:
		return Bool(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		f, _ := v.Float64()
		return Float(f)
	case string:
		return String(v)
	case []any:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = fromAny(e)
		}
		return List(list)
	case map[string]any:
		m := make(map[string]Value, len(v))
		for k, e := range v {
			m[k] = fromAny(e)
		}
		return Map(m)
	default:
		return Object(raw)
	}
}

// FromGo converts common Go primitives and containers into Value, for callers that build data
// programmatically rather than via JSON. Anything it doesn't recognize is wrapped as Object.
func FromGo(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case string:
		return String(t)
	case time.Time:
		return Date(t)
	case []Value:
		return List(t)
	case map[string]Value:
		return Map(t)
	case []any:
		list := make([]Value, len(t))
		for i, e := range t {
			list[i] = FromGo(e)
		}
		return List(list)
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			m[k] = FromGo(e)
		}
		return Map(m)
	default:
		return Object(v)
	}
}
