// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// VerifyIntegrity checks the SQLite database for structural corruption.
// Mode can be "quick" (PRAGMA quick_check) or "full" (PRAGMA integrity_check).
// It returns a slice of error messages if corruption is found, or nil if healthy.
func VerifyIntegrity(ctx context.Context, path string, mode string) ([]string, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database for verification: %w", err)
	}
	defer db.Close()

	pragma := "PRAGMA quick_check;"
	if mode == "full" {
		pragma = "PRAGMA integrity_check;"
	}

	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("integrity pragma failed: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var res string
		if err := rows.Scan(&res); err != nil {
			return nil, fmt.Errorf("failed to scan integrity result row: %w", err)
		}
		results = append(results, res)
	}

	// Healthy is exactly one row reading "ok".
	if len(results) == 1 && strings.ToLower(results[0]) == "ok" {
		return nil, nil
	}

	if len(results) == 0 {
		return []string{"no results returned from integrity check"}, nil
	}

	return results, nil
}
