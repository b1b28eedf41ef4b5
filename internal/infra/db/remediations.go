// Package db holds the SQL pieces shared by the mysql and postgres stores.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// LoadRemediations reads (finding_type, solution) pairs. Blank rows are
// skipped; a later row for the same type wins.
func LoadRemediations(ctx context.Context, q Querier, query string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query remediations: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var typ, solution sql.NullString
		if err := rows.Scan(&typ, &solution); err != nil {
			return nil, fmt.Errorf("scan remediation: %w", err)
		}
		t := strings.ToLower(strings.TrimSpace(typ.String))
		s := strings.TrimSpace(solution.String)
		if t == "" || s == "" {
			continue
		}
		out[t] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate remediations: %w", err)
	}
	return out, nil
}
