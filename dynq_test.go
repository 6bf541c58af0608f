package dynq

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/dynq/connector"
	"github.com/Konsultn-Engineering/dynq/database"
	"github.com/Konsultn-Engineering/dynq/dialect"
)

// mockProvider serves pre-built sqlmock databases keyed by logical database
// name, standing in for a real driver provider.
type mockProvider struct {
	dbs map[string]*sql.DB
}

func (p *mockProvider) Connect(_ context.Context, cfg connector.Config) (connector.Connection, error) {
	db, ok := p.dbs[cfg.Database]
	if !ok {
		return nil, fmt.Errorf("no mock database %q", cfg.Database)
	}
	return &mockConnection{db: database.NewSqlDatabase(db)}, nil
}

func (p *mockProvider) Dialect() dialect.Dialect { return dialect.NewMySQLDialect() }

type mockConnection struct {
	db *database.SqlDatabase
}

func (c *mockConnection) Database() database.Database      { return c.db }
func (c *mockConnection) Dialect() dialect.Dialect         { return dialect.NewMySQLDialect() }
func (c *mockConnection) Health(ctx context.Context) error { return c.db.PingContext(ctx) }
func (c *mockConnection) Stats() connector.ConnectionStats { return connector.ConnectionStats{} }
func (c *mockConnection) Close() error                     { return c.db.Close() }

var providerSeq atomic.Int64

// newTestRunner wires a Runner over sqlmock-backed logical databases. The
// registry's default database is "main".
func newTestRunner(t *testing.T, dbs map[string]*sql.DB) *Runner {
	t.Helper()
	name := fmt.Sprintf("sqlmock-%d", providerSeq.Add(1))
	connector.Register(name, &mockProvider{dbs: dbs})

	registry, err := connector.NewRegistry(name, connector.Config{
		Host:     "localhost",
		Database: "main",
		Username: "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })

	return New(registry)
}

// newMock creates a sqlmock pair with exact-string query matching, so test
// expectations state the final bound SQL verbatim.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	return db, mock
}
