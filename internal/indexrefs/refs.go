// Package indexrefs stores secondary indexes as nested maps whose depth
// equals the index arity. Unique indexes keep a single row id at each
// leaf, non-unique indexes keep a set.
package indexrefs

import (
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// NullSentinel encodes a missing field value inside an index path.
var NullSentinel = sqltypes.NewString("__NULL__")

// Node is one level of an index tree.
type Node interface{ nodeMarker() }

// Leaf holds the single row id of a unique index entry.
type Leaf struct {
	Row sqltypes.RowID
}

// LeafSet holds the row ids of a non-unique index entry.
type LeafSet map[sqltypes.RowID]struct{}

// Branch maps one field value to the next level.
type Branch map[sqltypes.Value]Node

func (Leaf) nodeMarker()    {}
func (LeafSet) nodeMarker() {}
func (Branch) nodeMarker()  {}

// Refs maps index name to that index's root branch.
type Refs map[string]Branch

func (r Refs) Clone() Refs {
	out := make(Refs, len(r))
	for name, root := range r {
		out[name] = cloneBranch(root)
	}
	return out
}

func cloneBranch(b Branch) Branch {
	out := make(Branch, len(b))
	for k, n := range b {
		switch x := n.(type) {
		case Branch:
			out[k] = cloneBranch(x)
		case LeafSet:
			s := make(LeafSet, len(x))
			for id := range x {
				s[id] = struct{}{}
			}
			out[k] = s
		case Leaf:
			out[k] = x
		}
	}
	return out
}

// Root returns the root branch for an index, creating it when absent.
func (r Refs) Root(index string) Branch {
	b, ok := r[index]
	if !ok {
		b = Branch{}
		r[index] = b
	}
	return b
}

// Add records row under path. Unique entries overwrite the leaf,
// non-unique entries join the set at the leaf.
func Add(refs Branch, path []sqltypes.Value, unique bool, row sqltypes.RowID) {
	head := path[0]
	if len(path) == 1 {
		if unique {
			refs[head] = Leaf{Row: row}
			return
		}
		set, ok := refs[head].(LeafSet)
		if !ok {
			set = LeafSet{}
			refs[head] = set
		}
		set[row] = struct{}{}
		return
	}

	child, ok := refs[head].(Branch)
	if !ok {
		child = Branch{}
		refs[head] = child
	}
	Add(child, path[1:], unique, row)
}

// Remove deletes row from the entry at path, collapsing branches and
// sets that become empty on the way out.
func Remove(refs Branch, path []sqltypes.Value, unique bool, row sqltypes.RowID) {
	head := path[0]
	if len(path) == 1 {
		if unique {
			delete(refs, head)
			return
		}
		if set, ok := refs[head].(LeafSet); ok {
			delete(set, row)
			if len(set) == 0 {
				delete(refs, head)
			}
		}
		return
	}

	child, ok := refs[head].(Branch)
	if !ok {
		return
	}
	Remove(child, path[1:], unique, row)
	if len(child) == 0 {
		delete(refs, head)
	}
}

// WalkUnique follows path to a unique leaf, reporting the row id stored
// there. The second return is false when the path does not end at a leaf.
func WalkUnique(refs Branch, path []sqltypes.Value) (sqltypes.RowID, bool) {
	head := path[0]
	if len(path) == 1 {
		if leaf, ok := refs[head].(Leaf); ok {
			return leaf.Row, true
		}
		return sqltypes.Null(), false
	}
	child, ok := refs[head].(Branch)
	if !ok {
		return sqltypes.Null(), false
	}
	return WalkUnique(child, path[1:])
}

// Collect gathers every row id reachable under path. A partial path
// collects the whole subtree below it.
func Collect(refs Branch, path []sqltypes.Value) []sqltypes.RowID {
	if len(path) == 0 {
		return collectAll(refs)
	}
	switch node := refs[path[0]].(type) {
	case Leaf:
		return []sqltypes.RowID{node.Row}
	case LeafSet:
		out := make([]sqltypes.RowID, 0, len(node))
		for id := range node {
			out = append(out, id)
		}
		return out
	case Branch:
		return Collect(node, path[1:])
	default:
		return nil
	}
}

func collectAll(b Branch) []sqltypes.RowID {
	var out []sqltypes.RowID
	for _, n := range b {
		switch x := n.(type) {
		case Leaf:
			out = append(out, x.Row)
		case LeafSet:
			for id := range x {
				out = append(out, id)
			}
		case Branch:
			out = append(out, collectAll(x)...)
		}
	}
	return out
}

// Key is one computed index position for a row.
type Key struct {
	Index       string
	Path        []sqltypes.Value
	StoreUnique bool
}

// ComputeKeys maps a row to its position in each index. Single-column
// PRIMARY indexes are skipped: the dataset key already is that value.
//
// Null handling in multi-column unique indexes mirrors MySQL's sparse
// semantics: a NULL in the first field suppresses the entry entirely,
// a NULL in any later field degrades the entry to non-unique.
func ComputeKeys(indexes []schema.Index, row sqltypes.Row) []Key {
	var out []Key
	for _, ix := range indexes {
		if ix.PrimarySingle() {
			continue
		}
		unique := ix.Kind == schema.IndexUnique || ix.Kind == schema.IndexPrimary || ix.ForceUnique

		path := make([]sqltypes.Value, 0, len(ix.Fields))
		skip := false
		for i, field := range ix.Fields {
			v, ok := row.Get(field)
			if !ok || v.IsNull() {
				if i == 0 && unique && len(ix.Fields) > 1 {
					skip = true
					break
				}
				if i > 0 {
					unique = false
				}
				v = NullSentinel
			}
			path = append(path, v)
		}
		if skip {
			continue
		}
		out = append(out, Key{Index: ix.Name, Path: path, StoreUnique: unique})
	}
	return out
}
