package graph

import (
	"context"
	"errors"
)

// Client is the contract the repository needs from a graph database. Writes
// group their statements into one transaction so a run is stored atomically.
type Client interface {
	ExecuteWrite(ctx context.Context, stmts ...Statement) (Result, error)
	ExecuteRead(ctx context.Context, stmt Statement) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Statement is a parameterised cypher query.
type Statement struct {
	Cypher string
	Params map[string]any
}

// Result holds the records of the last statement executed.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// StringValue returns the value stored under key when it is a string.
func (r Record) StringValue(key string) (string, bool) {
	v, ok := r[key].(string)
	return v, ok
}

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")
	// ErrNoStatements is returned by ExecuteWrite when called with nothing to run.
	ErrNoStatements = errors.New("no statements to execute")
)
