// Package mimicsql is the top-level facade for the mimicsql engine.
package mimicsql

import "github.com/tuannm99/mimicsql/internal/engine"

type (
	Server     = engine.Server
	Connection = engine.Connection
)

// NewServer builds an empty in-memory server.
func NewServer() *Server { return engine.NewServer() }
