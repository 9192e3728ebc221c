package data

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const (
	insertSubSQL = `INSERT INTO sub (prop, old_val, new_val) VALUES (?, ?, ?)
		ON CONFLICT(prop, old_val) DO UPDATE SET new_val = excluded.new_val
	`

	selectSubSQL = `SELECT prop, old_val, new_val FROM sub ORDER BY prop, old_val`

	updateProductPropertySQL = `UPDATE product SET %s = ?, updated_at = ? WHERE %s = ?`
)

// UpdatableProperties lists the product columns a substitution may rewrite.
var UpdatableProperties = []string{
	"brand",
	"category",
}

type Substitution struct {
	Prop    string `json:"prop" yaml:"prop"`
	Old     string `json:"old" yaml:"old"`
	New     string `json:"new" yaml:"new"`
	Records int64  `json:"records" yaml:"records"`
}

func applyProductSub(db *sql.DB, sub *Substitution) error {
	if db == nil {
		return errDBNotInitialized
	}

	if sub == nil {
		return nil
	}

	if !Contains(UpdatableProperties, sub.Prop) {
		return fmt.Errorf("invalid property: %s (permitted options: %v)", sub.Prop, UpdatableProperties)
	}

	// prop is checked against UpdatableProperties above
	q := rebind(db, fmt.Sprintf(updateProductPropertySQL, sub.Prop, sub.Prop))
	res, err := db.Exec(q, sub.New, now(), sub.Old)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to execute product property update statement: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	sub.Records = rows
	return nil
}

// SaveAndApplySub rewrites prop values equal to old and remembers the rule for future imports.
func SaveAndApplySub(db *sql.DB, prop, old, new string) (*Substitution, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	old = strings.TrimSpace(old)
	new = strings.TrimSpace(new)
	if old == "" || new == "" {
		return nil, errors.New("old and new values are required")
	}

	s := &Substitution{
		Prop: prop,
		Old:  old,
		New:  new,
	}

	if err := applyProductSub(db, s); err != nil {
		return nil, fmt.Errorf("failed to apply product sub: %w", err)
	}

	if _, err := db.Exec(rebind(db, insertSubSQL), prop, old, new); err != nil {
		return nil, fmt.Errorf("failed to insert substitution: %w", err)
	}

	return s, nil
}

// ApplySubstitutions re-applies every saved substitution.
func ApplySubstitutions(db *sql.DB) ([]*Substitution, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectSubSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute substitute select statement: %w", err)
	}

	list := make([]*Substitution, 0)
	for rows.Next() {
		s := &Substitution{}
		if err := rows.Scan(&s.Prop, &s.Old, &s.New); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate substitutions: %w", err)
	}

	for _, s := range list {
		if err := applyProductSub(db, s); err != nil {
			return nil, fmt.Errorf("failed to apply product sub: %w", err)
		}
	}

	return list, nil
}
