package store

import (
	"encoding/json"
	"fmt"
	"reflect"
)

type Op int

const (
	OpEqual Op = iota
	OpArrayContains
)

// Condition compares the JSON value found at Path. Path segments are object
// keys, so map keys containing dots or spaces need no escaping.
type Condition struct {
	Path  []string
	Op    Op
	Value any
}

func Equal(value any, path ...string) Condition {
	return Condition{Path: path, Op: OpEqual, Value: value}
}

func ArrayContains(value any, path ...string) Condition {
	return Condition{Path: path, Op: OpArrayContains, Value: value}
}

// Query selects documents of one game. An empty Collection selects every
// collection of the game.
type Query struct {
	GameID     string
	Collection string
	Where      []Condition
}

func (q Query) matchesRef(ref Ref) bool {
	if ref.GameID != q.GameID {
		return false
	}
	return q.Collection == "" || ref.Collection == q.Collection
}

// matcher evaluates conditions against decoded documents.
type matcher struct {
	conds  []Condition
	values []any
}

func newMatcher(conds []Condition) (*matcher, error) {
	m := &matcher{conds: conds, values: make([]any, len(conds))}
	for i, c := range conds {
		if len(c.Path) == 0 {
			return nil, fmt.Errorf("condition %d has an empty path", i)
		}
		v, err := normalize(c.Value)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		m.values[i] = v
	}
	return m, nil
}

func (m *matcher) match(data []byte) (bool, error) {
	if len(m.conds) == 0 {
		return true, nil
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("decode document: %w", err)
	}
	for i, c := range m.conds {
		field, ok := lookup(doc, c.Path)
		if !ok {
			return false, nil
		}
		switch c.Op {
		case OpEqual:
			if !reflect.DeepEqual(field, m.values[i]) {
				return false, nil
			}
		case OpArrayContains:
			items, ok := field.([]any)
			if !ok {
				return false, nil
			}
			found := false
			for _, item := range items {
				if reflect.DeepEqual(item, m.values[i]) {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unknown operator %d", c.Op)
		}
	}
	return true, nil
}

// containment renders the condition as a JSON document for postgres' @>
// operator: {"a":{"b":value}} for equality, {"a":{"b":[value]}} for array
// membership.
func (c Condition) containment() ([]byte, error) {
	var leaf any = c.Value
	if c.Op == OpArrayContains {
		leaf = []any{c.Value}
	}
	for i := len(c.Path) - 1; i >= 0; i-- {
		leaf = map[string]any{c.Path[i]: leaf}
	}
	return json.Marshal(leaf)
}

// normalize round-trips v through JSON so typed values compare equal to
// decoded documents (string enums, ints as float64, structs as maps).
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func lookup(doc any, path []string) (any, bool) {
	cur := doc
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
