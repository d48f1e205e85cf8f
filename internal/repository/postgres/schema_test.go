package postgres

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The sqlmock tests never run against a real schema, so a column renamed in
// the migration but not in the query constants (or the other way around)
// would only surface in production. This cross-check keeps them in step.
func TestMigrationDefinesQueriedColumns(t *testing.T) {
	schema, err := os.ReadFile("../../../migrations/001_init.sql")
	require.NoError(t, err)

	tables := map[string][]string{
		"lockers":      splitColumns(lockerColumns),
		"rentals":      splitColumns(rentalColumns),
		"reservations": splitColumns(reservationColumns),
	}

	for table, queried := range tables {
		defined := tableColumns(t, string(schema), table)
		for _, col := range queried {
			require.Containsf(t, defined, col,
				"queries on %s use column %q which the migration does not define", table, col)
		}
	}
}

func splitColumns(list string) []string {
	var out []string
	for _, col := range strings.Split(list, ",") {
		out = append(out, strings.TrimSpace(col))
	}
	return out
}

func tableColumns(t *testing.T, schema, table string) []string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + `\s*\((.*?)\n\);`)
	m := re.FindStringSubmatch(schema)
	require.NotNilf(t, m, "migration does not create table %s", table)

	var cols []string
	for _, line := range strings.Split(m[1], "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "PRIMARY", "CHECK", "--":
			continue
		}
		cols = append(cols, fields[0])
	}
	return cols
}
