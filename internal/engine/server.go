// Package engine holds the in-memory server: databases, table snapshots
// with their index refs, and per-connection sessions.
package engine

import (
	"log/slog"
	"sync"

	"github.com/tuannm99/mimicsql/internal/indexrefs"
	"github.com/tuannm99/mimicsql/internal/schema"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
	"github.com/tuannm99/mimicsql/internal/sqltypes"
)

// tableStore is the canonical snapshot for one table.
type tableStore struct {
	data *sqltypes.Dataset
	refs indexrefs.Refs
	ts   *schema.TableSchema
}

// Server owns every database. Table hands out deep clones so a running
// statement mutates privately; SaveTable publishes the result.
type Server struct {
	mu  sync.RWMutex
	dbs map[string]map[string]*tableStore
	log *slog.Logger
}

func NewServer() *Server {
	return &Server{
		dbs: map[string]map[string]*tableStore{},
		log: slog.Default(),
	}
}

func (s *Server) CreateDatabase(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; ok {
		return sqlerr.ErrRuntime.New("database " + name + " already exists")
	}
	s.dbs[name] = map[string]*tableStore{}
	s.log.Info("database created", "db", name)
	return nil
}

func (s *Server) DropDatabase(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dbs[name]; !ok {
		return sqlerr.ErrUnknownDatabase.New(name)
	}
	delete(s.dbs, name)
	s.log.Info("database dropped", "db", name)
	return nil
}

func (s *Server) HasDatabase(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.dbs[name]
	return ok
}

// CreateTable registers an empty table. The owning database is created
// implicitly when absent.
func (s *Server) CreateTable(db string, ts *schema.TableSchema) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables, ok := s.dbs[db]
	if !ok {
		tables = map[string]*tableStore{}
		s.dbs[db] = tables
	}
	if _, ok := tables[ts.Name]; ok {
		return sqlerr.ErrRuntime.New("table " + ts.Name + " already exists")
	}
	tables[ts.Name] = &tableStore{
		data: sqltypes.NewDataset(),
		refs: indexrefs.Refs{},
		ts:   ts,
	}
	s.log.Info("table created", "db", db, "table", ts.Name)
	return nil
}

func (s *Server) DropTable(db, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables, ok := s.dbs[db]
	if !ok {
		return sqlerr.ErrUnknownDatabase.New(db)
	}
	if _, ok := tables[table]; !ok {
		return sqlerr.ErrUnknownTable.New(table, db)
	}
	delete(tables, table)
	s.log.Info("table dropped", "db", db, "table", table)
	return nil
}

// Table returns a private copy of the table's snapshot and index refs.
func (s *Server) Table(db, table string) (*sqltypes.Dataset, indexrefs.Refs, *schema.TableSchema, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tables, ok := s.dbs[db]
	if !ok {
		return nil, nil, nil, sqlerr.ErrUnknownDatabase.New(db)
	}
	t, ok := tables[table]
	if !ok {
		return nil, nil, nil, sqlerr.ErrUnknownTable.New(table, db)
	}
	return t.data.Clone(), t.refs.Clone(), t.ts, nil
}

// SaveTable replaces the table's snapshot and index refs. This is the
// only point where a statement's writes become visible.
func (s *Server) SaveTable(
	db, table string,
	data *sqltypes.Dataset,
	refs indexrefs.Refs,
	dirtyPKs map[sqltypes.RowID]struct{},
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables, ok := s.dbs[db]
	if !ok {
		return sqlerr.ErrUnknownDatabase.New(db)
	}
	t, ok := tables[table]
	if !ok {
		return sqlerr.ErrUnknownTable.New(table, db)
	}
	t.data = data
	t.refs = refs
	s.log.Debug("table saved",
		"db", db, "table", table, "rows", data.Len(), "dirty", len(dirtyPKs))
	return nil
}
