package plan

import (
	"github.com/tuannm99/mimicsql/internal/expression"
	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// ServerStore is the slice of the backing server the executor needs:
// handing out table snapshots and accepting them back. Snapshots are
// owned by the current execution; only SaveTable publishes a mutation.
type ServerStore interface {
	// Table returns a private copy of the table snapshot, its index refs
	// and its schema (nil when the table was created without one).
	Table(db, table string) (*sqltypes.Dataset, indexrefs.Refs, *schema.TableSchema, error)

	// SaveTable atomically replaces the stored snapshot.
	SaveTable(
		db, table string,
		data *sqltypes.Dataset,
		refs indexrefs.Refs,
		dirtyPKs map[sqltypes.RowID]struct{},
	) error
}

// Connection is what a running statement sees of its session.
type Connection interface {
	expression.Connection
	Server() ServerStore
	QueryContext() *QueryContext
}

// Executable is a fully built statement ready to run on a connection.
type Executable interface {
	Execute(conn Connection) (*Result, error)
}
