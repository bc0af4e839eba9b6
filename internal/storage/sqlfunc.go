package storage

import (
	"database/sql/driver"
	"fmt"

	"modernc.org/sqlite"

	"fintrack/internal/query"
)

// foldContainsFunc is the SQL name of query.ContainsFold. SQLite's own
// lower() and LIKE fold ASCII only.
const foldContainsFunc = "fintrack_fold_contains"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldContainsFunc, 2, foldContains)
}

// foldContains reports (as 0 or 1) whether the text form of args[0]
// contains args[1] ignoring case. NULL never matches.
func foldContains(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if args[0] == nil || args[1] == nil {
		return int64(0), nil
	}
	term, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("%s: term must be text, got %T", foldContainsFunc, args[1])
	}
	if query.ContainsFold(query.Text(args[0]), term) {
		return int64(1), nil
	}
	return int64(0), nil
}
