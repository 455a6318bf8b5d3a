// Package sqlerr defines the typed error surface of the fake server.
// Kinds let callers assert error categories without string matching.
package sqlerr

import (
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrRuntime covers malformed inputs detected at execution time.
	ErrRuntime = errors.NewKind("mimicsql: %s")

	// ErrUniqueKeyViolation carries the violated constraint name.
	ErrUniqueKeyViolation = errors.NewKind("mimicsql: duplicate entry for key %q")

	// ErrReplicaAfterWrite is raised when a replica read would observe a
	// primary key written earlier in the same request. Carries the SQL text.
	ErrReplicaAfterWrite = errors.NewKind(
		"mimicsql: replica read of a row written during this request, query: %s",
	)

	// ErrSchemaCoercion is a strict-mode type mismatch.
	ErrSchemaCoercion = errors.NewKind("mimicsql: column %q expects %s, got %s")

	ErrUnknownColumn   = errors.NewKind("mimicsql: unknown column %q")
	ErrUnknownTable    = errors.NewKind("mimicsql: unknown table %q in database %q")
	ErrUnknownDatabase = errors.NewKind("mimicsql: unknown database %q")
)
