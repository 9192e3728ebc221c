package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

const (
	SourceTypeVideo   = "video"
	SourceTypeArticle = "article"

	upsertSourceSQL = `INSERT INTO source (
			id, domain, type, url, title, author, occupation, published_at, views, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain,
			type = excluded.type,
			url = excluded.url,
			title = excluded.title,
			author = excluded.author,
			occupation = excluded.occupation,
			published_at = excluded.published_at,
			updated_at = excluded.updated_at
	`

	selectSourceColumns = `SELECT s.id, s.domain, s.type, s.url, s.title, s.author,
			s.occupation, s.published_at, s.views, s.updated_at
		FROM source s
	`

	selectSourceSQL = selectSourceColumns + `WHERE s.id = ?`

	selectProductSourcesSQL = selectSourceColumns + `JOIN mention m ON m.source_id = s.id
		WHERE m.product_id = ?
		ORDER BY s.published_at DESC, s.id
	`

	selectVideoSourceIDsSQL = `SELECT id FROM source WHERE type = ? ORDER BY id`

	updateSourceMetaSQL = `UPDATE source
		SET title = ?, author = ?, published_at = ?, views = COALESCE(?, views), updated_at = ?
		WHERE id = ?
	`
)

// Source is a video or article in which products are mentioned.
type Source struct {
	ID          string `json:"id" yaml:"id" validate:"required,max=128"`
	Domain      string `json:"domain" yaml:"domain" validate:"required"`
	Type        string `json:"type" yaml:"type" validate:"required,oneof=video article"`
	URL         string `json:"url" yaml:"url" validate:"required,url"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Occupation  string `json:"occupation,omitempty" yaml:"occupation,omitempty"`
	PublishedAt string `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Views       int64  `json:"views,omitempty" yaml:"views,omitempty" validate:"min=0"`
	UpdatedAt   string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// SourceMeta is the refreshable subset of source fields.
type SourceMeta struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Author      string `json:"author" yaml:"author"`
	PublishedAt string `json:"published_at" yaml:"published_at"`
	// nil keeps the stored count
	Views       *int64 `json:"views,omitempty" yaml:"views,omitempty"`
}

func SaveSources(db *sql.DB, list []*Source) error {
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

	if err := saveSources(db, tx, list); err != nil {
		rollbackTransaction(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sources: %w", err)
	}
	return nil
}

func saveSources(db *sql.DB, tx *sql.Tx, list []*Source) error {
	stmt, err := tx.Prepare(rebind(db, upsertSourceSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare source insert statement: %w", err)
	}
	defer stmt.Close()

	ts := now()
	for i, s := range list {
		if _, err := stmt.Exec(s.ID, s.Domain, s.Type, s.URL, s.Title, s.Author,
			s.Occupation, s.PublishedAt, s.Views, ts); err != nil {
			slog.Error("failed to insert source", "index", i, "id", s.ID, "error", err)
			return fmt.Errorf("error inserting source[%d]: %s: %w", i, s.ID, err)
		}
	}
	return nil
}

func GetSource(db *sql.DB, id string) (*Source, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	s, err := scanSource(db.QueryRow(rebind(db, selectSourceSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("source %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan source: %w", err)
	}
	return s, nil
}

// GetProductSources returns the sources mentioning a product, newest first.
func GetProductSources(db *sql.DB, productID string) ([]*Source, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectProductSourcesSQL), productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query product sources: %w", err)
	}
	defer rows.Close()

	list := make([]*Source, 0)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		list = append(list, s)
	}

	return list, rows.Err()
}

func GetVideoSourceIDs(db *sql.DB) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectVideoSourceIDsSQL), SourceTypeVideo)
	if err != nil {
		return nil, fmt.Errorf("failed to query video sources: %w", err)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, id)
	}

	return list, rows.Err()
}

// UpdateSourceMeta writes refreshed metadata and returns the number of updated sources.
func UpdateSourceMeta(db *sql.DB, list []*SourceMeta) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	if len(list) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(rebind(db, updateSourceMetaSQL))
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("failed to prepare source update statement: %w", err)
	}
	defer stmt.Close()

	ts := now()
	var updated int
	for _, m := range list {
		res, err := stmt.Exec(m.Title, m.Author, m.PublishedAt, m.Views, ts, m.ID)
		if err != nil {
			rollbackTransaction(tx)
			return 0, fmt.Errorf("error updating source %s: %w", m.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit source updates: %w", err)
	}

	return updated, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(r rowScanner) (*Source, error) {
	s := &Source{}
	if err := r.Scan(&s.ID, &s.Domain, &s.Type, &s.URL, &s.Title, &s.Author,
		&s.Occupation, &s.PublishedAt, &s.Views, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}
