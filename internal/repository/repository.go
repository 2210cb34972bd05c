package repository

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is the subset of database/sql operations repositories need. It is
// satisfied by both *sql.DB and *sql.Tx, so the same repository code runs
// standalone or inside a caller-managed transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ErrVersionConflict signals that a concurrent writer already inserted the
// extraction version being appended. Callers retry after reacquiring the
// latest version under lock; the error is never surfaced to API clients.
var ErrVersionConflict = errors.New("extraction version conflict")

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
