package graph

import (
	"context"
	"strings"
	"sync"
)

// MemoryClient records statements instead of executing them. Tests use it to
// assert on the cypher a repository issues and to feed canned read results.
type MemoryClient struct {
	mu           sync.Mutex
	writes       [][]Statement
	reads        []Statement
	readResults  []Result
	err          error
	failOn       string
	connectivity error
	closed       bool
}

// NewMemoryClient returns an empty recorder.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// WithError makes every subsequent call fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailOn makes writes containing a statement with fragment in its cypher fail
// with err. Nothing from the failing transaction is recorded.
func (m *MemoryClient) FailOn(fragment string, err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failOn = fragment
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult queues a result for the next ExecuteRead call.
func (m *MemoryClient) PushReadResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readResults = append(m.readResults, res)
}

func (m *MemoryClient) ExecuteWrite(ctx context.Context, stmts ...Statement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if len(stmts) == 0 {
		return Result{}, ErrNoStatements
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		if m.failOn == "" {
			return Result{}, m.err
		}
		for _, stmt := range stmts {
			if strings.Contains(stmt.Cypher, m.failOn) {
				return Result{}, m.err
			}
		}
	}

	tx := make([]Statement, 0, len(stmts))
	for _, stmt := range stmts {
		tx = append(tx, Statement{Cypher: stmt.Cypher, Params: cloneMap(stmt.Params)})
	}
	m.writes = append(m.writes, tx)
	return Result{}, nil
}

func (m *MemoryClient) ExecuteRead(ctx context.Context, stmt Statement) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil && m.failOn == "" {
		return Result{}, m.err
	}
	m.reads = append(m.reads, Statement{Cypher: stmt.Cypher, Params: cloneMap(stmt.Params)})

	if len(m.readResults) == 0 {
		return Result{}, nil
	}
	res := m.readResults[0]
	m.readResults = m.readResults[1:]
	return res, nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Transactions returns a snapshot of the committed write transactions.
func (m *MemoryClient) Transactions() [][]Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Statement(nil), m.writes...)
}

// WriteCalls flattens every committed statement in commit order.
func (m *MemoryClient) WriteCalls() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Statement
	for _, tx := range m.writes {
		out = append(out, tx...)
	}
	return out
}

// ReadCalls returns a snapshot of executed read statements.
func (m *MemoryClient) ReadCalls() []Statement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Statement(nil), m.reads...)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
