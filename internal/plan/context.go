package plan

import (
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// QueryContext carries a session's execution flags and is injected through
// the connection. The request scope covers InRequest and DirtyPKs only:
// the engine connection sets and clears them at request entry and exit,
// while the other flags keep their values for the whole session.
type QueryContext struct {
	UseReplica                     bool
	InRequest                      bool
	PreventReplicaReadsAfterWrites bool
	RelaxUniqueConstraints         bool
	StrictSQLMode                  bool

	// Query is the SQL text currently executing, echoed in replica-guard
	// errors.
	Query string

	// DirtyPKs collects primary keys written during this request. Updated
	// as rows succeed, so a failed statement leaves earlier entries
	// behind; the request fails fast anyway.
	DirtyPKs map[sqltypes.RowID]struct{}
}

func NewQueryContext() *QueryContext {
	return &QueryContext{
		StrictSQLMode: true,
		DirtyPKs:      map[sqltypes.RowID]struct{}{},
	}
}

func (qc *QueryContext) MarkDirty(id sqltypes.RowID) {
	if qc.DirtyPKs == nil {
		qc.DirtyPKs = map[sqltypes.RowID]struct{}{}
	}
	qc.DirtyPKs[id] = struct{}{}
}

func (qc *QueryContext) IsDirty(id sqltypes.RowID) bool {
	_, ok := qc.DirtyPKs[id]
	return ok
}

// replicaGuarded reports whether replica reads must be checked against
// the dirty set.
func (qc *QueryContext) replicaGuarded() bool {
	return qc.UseReplica && qc.InRequest && qc.PreventReplicaReadsAfterWrites
}
