package worker

import (
	"context"
	"sync/atomic"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// MockConn stubs the one driver.Conn method the pool uses. The embedded
// interface panics on anything else, which is what we want in tests.
type MockConn struct {
	driver.Conn

	prepared atomic.Int64
	appended atomic.Int64
	sent     atomic.Int64
}

func (c *MockConn) PrepareBatch(context.Context, string, ...driver.PrepareBatchOption) (driver.Batch, error) {
	c.prepared.Add(1)
	return &MockBatch{conn: c}, nil
}

func (c *MockConn) Ping(context.Context) error { return nil }

type MockBatch struct {
	driver.Batch

	conn *MockConn
	rows int64
}

func (b *MockBatch) Append(...any) error {
	b.rows++
	b.conn.appended.Add(1)
	return nil
}

func (b *MockBatch) Send() error {
	b.conn.sent.Add(1)
	return nil
}
