//go:build integration

package connector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/raaihank/pii-scanner/internal/dialect"
)

func setupPostgres(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgresql+psycopg2://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())
}

func TestPostgresConnection(t *testing.T) {
	conn := setupPostgres(t)
	ctx := context.Background()

	r := NewResolver(DefaultOptions(), zap.NewNop())
	c, err := r.Resolve(ctx, Params{ConnString: conn})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.DB.ExecContext(ctx, `CREATE TABLE customers (email TEXT, phone TEXT)`)
	require.NoError(t, err)

	tables, err := c.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers"}, tables)

	owner, err := c.TableOwner(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, "test", owner)

	columns, err := c.ListColumns(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Table: "customers", Name: "email", DataType: "text"},
		{Table: "customers", Name: "phone", DataType: "text"},
	}, columns)

	var n int
	require.NoError(t, c.DB.GetContext(ctx, &n, "SELECT count(*) FROM ("+dialect.BuildSampleQuery("customers", dialect.PostgreSQL)+") s"))
	assert.Zero(t, n)

	assert.Equal(t, "testdb", dialect.ExtractDBName(c.Descriptor()))
}
