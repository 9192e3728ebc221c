package data

import (
	"database/sql"
	"errors"
	"fmt"
)

var stateQueries = map[string]string{
	"source":     "SELECT COUNT(*) FROM source",
	"product":    "SELECT COUNT(*) FROM product",
	"mention":    "SELECT COUNT(*) FROM mention",
	"tag":        "SELECT COUNT(DISTINCT tag) FROM product_tag",
	"pending":    "SELECT COUNT(*) FROM product WHERE status = 'pending'",
	"approved":   "SELECT COUNT(*) FROM product WHERE status = 'approved'",
	"sub":        "SELECT COUNT(*) FROM sub",
	"schema_ver": "SELECT COALESCE(MAX(version), 0) FROM schema_version",
}

// GetDataState returns the current state of the database.
func GetDataState(db *sql.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64, len(stateQueries))
	for k, q := range stateQueries {
		count, err := getCount(db, q)
		if err != nil {
			return nil, fmt.Errorf("error getting %s count: %w", k, err)
		}
		state[k] = count
	}

	return state, nil
}

func getCount(db *sql.DB, query string) (int64, error) {
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan row: %w", err)
	}

	return count, nil
}
