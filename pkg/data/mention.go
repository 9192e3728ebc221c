package data

import (
	"database/sql"
	"fmt"
)

const (
	upsertMentionSQL = `INSERT INTO mention (product_id, source_id, note) VALUES (?, ?, ?)
		ON CONFLICT(product_id, source_id) DO UPDATE SET note = excluded.note
	`
)

// Mention links a product to a source that references it.
type Mention struct {
	ProductID string `json:"product_id" yaml:"product_id" validate:"required"`
	SourceID  string `json:"source_id" yaml:"source_id" validate:"required"`
	Note      string `json:"note,omitempty" yaml:"note,omitempty"`
}

// SaveMentions upserts mentions. A repeated product/source pair counts once.
func SaveMentions(db *sql.DB, list []*Mention) error {
	if db == nil {
		return errDBNotInitialized
	}

	if len(list) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := saveMentions(db, tx, list); err != nil {
		rollbackTransaction(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mentions: %w", err)
	}
	return nil
}

func saveMentions(db *sql.DB, tx *sql.Tx, list []*Mention) error {
	stmt, err := tx.Prepare(rebind(db, upsertMentionSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare mention insert statement: %w", err)
	}
	defer stmt.Close()

	for i, m := range list {
		if _, err := stmt.Exec(m.ProductID, m.SourceID, m.Note); err != nil {
			return fmt.Errorf("error inserting mention[%d]: %s/%s: %w", i, m.ProductID, m.SourceID, err)
		}
	}
	return nil
}
