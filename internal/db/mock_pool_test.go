package db

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/require"
)

// mockPool hands out a single pgxmock connection and counts acquisitions.
type mockPool struct {
	mock       pgxmock.PgxConnIface
	acquireErr error
	acquired   int
	released   int
}

func (p *mockPool) Acquire(ctx context.Context) (Conn, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return &mockConn{PgxConnIface: p.mock, pool: p}, nil
}

type mockConn struct {
	pgxmock.PgxConnIface
	pool *mockPool
}

func (c *mockConn) Release() { c.pool.released++ }

func newMockPool(t *testing.T) *mockPool {
	t.Helper()
	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close(context.Background()) })
	return &mockPool{mock: mock}
}

// assertBalanced fails unless every acquired connection was released once
// and all expectations were met.
func (p *mockPool) assertBalanced(t *testing.T) {
	t.Helper()
	require.Equal(t, p.acquired, p.released, "connections acquired vs released")
	require.NoError(t, p.mock.ExpectationsWereMet())
}
