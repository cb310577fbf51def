package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every column a repository selects must exist in the migration schema, or
// the query fails at runtime with SQLSTATE 42703 where no unit test can see
// it.
func TestRepositoryColumnsExistInSchema(t *testing.T) {
	schema, err := os.ReadFile("../../migrations/001_init.sql")
	require.NoError(t, err)

	tests := []struct {
		table   string
		columns string
	}{
		{"tickets", ticketColumns},
		{"people", personColumns},
		{"approval_grants", grantColumns},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			ddl := tableDDL(t, string(schema), tt.table)
			for _, column := range strings.Split(tt.columns, ",") {
				column = strings.TrimSpace(column)
				require.NotEmpty(t, column)
				require.Contains(t, ddl, column,
					"table %s is missing column %s selected by the repository", tt.table, column)
			}
		})
	}
}

func tableDDL(t *testing.T, schema, table string) string {
	t.Helper()
	marker := "CREATE TABLE IF NOT EXISTS " + table + " ("
	start := strings.Index(schema, marker)
	require.GreaterOrEqual(t, start, 0, "no CREATE TABLE for %s", table)
	rest := schema[start:]
	end := strings.Index(rest, ");")
	require.Greater(t, end, 0)
	return rest[:end]
}
