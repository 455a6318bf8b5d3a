package sqltypes

// RowID is the key under which a row lives in a Dataset. It equals the
// single-column primary key value when the table has one.
type RowID = Value

// Dataset is an ordered row-id to row mapping. Order is semantic: it
// carries insertion order, and sort order after an ORDER BY pass.
type Dataset struct {
	ids  []RowID
	rows map[RowID]Row
}

func NewDataset() *Dataset {
	return &Dataset{rows: map[RowID]Row{}}
}

func (d *Dataset) Len() int { return len(d.ids) }

// Keys returns the row ids in current order.
func (d *Dataset) Keys() []RowID {
	out := make([]RowID, len(d.ids))
	copy(out, d.ids)
	return out
}

func (d *Dataset) Get(id RowID) (Row, bool) {
	r, ok := d.rows[id]
	return r, ok
}

func (d *Dataset) Has(id RowID) bool {
	_, ok := d.rows[id]
	return ok
}

// Put writes a row, appending the id at the end when new and keeping its
// position when overwriting.
func (d *Dataset) Put(id RowID, r Row) {
	if d.rows == nil {
		d.rows = map[RowID]Row{}
	}
	if _, ok := d.rows[id]; !ok {
		d.ids = append(d.ids, id)
	}
	d.rows[id] = r
}

func (d *Dataset) Delete(id RowID) {
	if _, ok := d.rows[id]; !ok {
		return
	}
	delete(d.rows, id)
	for i, k := range d.ids {
		if k == id {
			d.ids = append(d.ids[:i], d.ids[i+1:]...)
			break
		}
	}
}

// Rekey replaces the entry at oldID with (newID, row) in place, keeping
// the position of surrounding entries. Insertion order is part of the
// dataset contract, so a primary-key change must not move the row.
func (d *Dataset) Rekey(oldID, newID RowID, row Row) {
	if oldID == newID {
		d.rows[oldID] = row
		return
	}
	for i, k := range d.ids {
		if k == oldID {
			d.ids[i] = newID
			break
		}
	}
	delete(d.rows, oldID)
	d.rows[newID] = row
}

// Reorder rebuilds the dataset retaining only the given ids, in the given
// order. Unknown ids are ignored.
func (d *Dataset) Reorder(ids []RowID) *Dataset {
	out := NewDataset()
	for _, id := range ids {
		if r, ok := d.rows[id]; ok {
			out.Put(id, r)
		}
	}
	return out
}

func (d *Dataset) Clone() *Dataset {
	out := NewDataset()
	for _, id := range d.ids {
		out.Put(id, d.rows[id].Clone())
	}
	return out
}

// Each visits rows in current order; a false return stops the walk.
func (d *Dataset) Each(fn func(id RowID, row Row) bool) {
	for _, id := range d.ids {
		if !fn(id, d.rows[id]) {
			return
		}
	}
}
