package engine

import (
	"strings"
	"time"

	"github.com/tuannm99/mimicsql/internal/parser"
	"github.com/tuannm99/mimicsql/internal/plan"
	"github.com/tuannm99/mimicsql/internal/planner"
	"github.com/tuannm99/mimicsql/internal/sqlerr"
)

// ExecSQL parses and executes one statement on this connection. DDL is
// dispatched straight to the server; DML goes through the planner.
func (c *Connection) ExecSQL(sql string) (*plan.Result, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, sqlerr.ErrRuntime.New(err.Error())
	}

	start := time.Now()
	defer func() {
		c.log.Debug("exec", "sql", sql, "took", time.Since(start))
	}()

	switch s := stmt.(type) {
	case *parser.CreateDatabaseStmt:
		return &plan.Result{}, c.srv.CreateDatabase(s.Name)

	case *parser.DropDatabaseStmt:
		return &plan.Result{}, c.srv.DropDatabase(s.Name)

	case *parser.UseDatabaseStmt:
		return &plan.Result{}, c.Use(s.Name)

	case *parser.CreateTableStmt:
		ts, err := planner.BuildTableSchema(s)
		if err != nil {
			return nil, err
		}
		db := c.db
		if idx := strings.Index(s.TableName, "."); idx >= 0 {
			db = s.TableName[:idx]
		}
		return &plan.Result{}, c.srv.CreateTable(db, ts)

	case *parser.DropTableStmt:
		db, table := c.db, s.TableName
		if idx := strings.Index(s.TableName, "."); idx >= 0 {
			db, table = s.TableName[:idx], s.TableName[idx+1:]
		}
		return &plan.Result{}, c.srv.DropTable(db, table)
	}

	c.qc.Query = sql
	p, err := planner.BuildPlan(sql, stmt)
	if err != nil {
		return nil, err
	}
	return p.Execute(c)
}
