package testsupport

import (
	"testing"

	"github.com/jmoiron/sqlx"

	"tradesage/internal/adapters/config"
	"tradesage/internal/adapters/postgres"
)

// PostgresTestHelper manages a database connection for integration tests.
type PostgresTestHelper struct {
	client *postgres.Client
}

// NewPostgresTestHelper opens a connection and closes it when the test ends.
func NewPostgresTestHelper(t *testing.T, cfg config.PostgresConfig) *PostgresTestHelper {
	t.Helper()

	client, err := postgres.NewClient(cfg)
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	return &PostgresTestHelper{client: client}
}

// DB returns the underlying database handle.
func (h *PostgresTestHelper) DB() *sqlx.DB {
	return h.client.DB()
}

// NewTestPostgres creates a test postgres helper with config loaded from
// the environment.
func NewTestPostgres(t *testing.T) *PostgresTestHelper {
	t.Helper()

	dbConfigs := LoadDatabaseConfigsFromEnv(t)

	return NewPostgresTestHelper(t, dbConfigs.Postgres)
}
