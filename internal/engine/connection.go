package engine

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/tuannm99/mimicsql/internal/plan"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// Connection is one client session: an id, the current database and a
// query context that scopes replica/dirty-PK tracking to the session's
// current request.
type Connection struct {
	ID string

	srv *Server
	db  string
	qc  *plan.QueryContext
	log *slog.Logger
}

var _ plan.Connection = (*Connection)(nil)

func (s *Server) NewConnection(db string) *Connection {
	id := uuid.NewString()
	return &Connection{
		ID:  id,
		srv: s,
		db:  db,
		qc:  plan.NewQueryContext(),
		log: s.log.With("conn", id),
	}
}

func (c *Connection) CurrentDatabase() string          { return c.db }
func (c *Connection) Server() plan.ServerStore         { return c.srv }
func (c *Connection) QueryContext() *plan.QueryContext { return c.qc }

func (c *Connection) Use(db string) error {
	if !c.srv.HasDatabase(db) {
		return sqlerr.ErrUnknownDatabase.New(db)
	}
	c.db = db
	return nil
}

// BeginRequest opens a request scope: writes start recording dirty PKs
// and replica reads are checked against them.
func (c *Connection) BeginRequest() {
	c.qc.InRequest = true
	c.qc.DirtyPKs = map[sqltypes.RowID]struct{}{}
}

// EndRequest closes the request scope and drops the dirty set.
func (c *Connection) EndRequest() {
	c.qc.InRequest = false
	c.qc.DirtyPKs = map[sqltypes.RowID]struct{}{}
}
