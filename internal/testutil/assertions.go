package testutil

import (
	"encoding/csv"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// CSVColumns parses CSV output into columns keyed by header name.
func CSVColumns(t *testing.T, result *HarnessResult) map[string][]string {
	t.Helper()
	require.NoError(t, result.Err)

	records, err := csv.NewReader(strings.NewReader(result.Output)).ReadAll()
	require.NoError(t, err, "output is not CSV:\n%s", result.Output)
	require.NotEmpty(t, records, "output has no header")

	header := records[0]
	cols := make(map[string][]string, len(header))
	for _, name := range header {
		cols[name] = []string{}
	}
	for _, record := range records[1:] {
		for i, cell := range record {
			cols[header[i]] = append(cols[header[i]], cell)
		}
	}
	return cols
}

// AssertColumnNumbers checks that a CSV column holds exactly want.
func AssertColumnNumbers(t *testing.T, result *HarnessResult, column string, want ...float64) {
	t.Helper()

	got, ok := CSVColumns(t, result)[column]
	require.True(t, ok, "column %q not found in output:\n%s", column, result.Output)
	require.Len(t, got, len(want), "column %q", column)
	for i, cell := range got {
		f, err := strconv.ParseFloat(cell, 64)
		require.NoError(t, err, "column %q step %d", column, i)
		require.Equal(t, want[i], f, "column %q step %d", column, i)
	}
}
