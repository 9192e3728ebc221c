package data

import (
	"database/sql"
	"errors"
	"fmt"
)

const (
	selectPendingProductsSQL = `SELECT ` + productColumns + `,
			COUNT(DISTINCT m.source_id) AS mention_count
		FROM product p
		LEFT JOIN mention m ON m.product_id = p.id
		WHERE p.domain = COALESCE(?, p.domain) AND p.status = ?
		GROUP BY ` + productColumns + `
		ORDER BY mention_count DESC, p.updated_at DESC, p.id
		LIMIT ?
	`

	updateProductStatusSQL = `UPDATE product SET status = ?, updated_at = ? WHERE id = ?`

	updateProductSQL = `UPDATE product SET
			name = COALESCE(?, name),
			brand = COALESCE(?, brand),
			category = COALESCE(?, category),
			subcategory = COALESCE(?, subcategory),
			price_range = COALESCE(?, price_range),
			url = COALESCE(?, url),
			image_url = COALESCE(?, image_url),
			updated_at = ?
		WHERE id = ?
	`
)

var ReviewStatuses = []string{StatusPending, StatusApproved, StatusRejected}

// ProductUpdate carries admin edits. Nil fields are left unchanged.
type ProductUpdate struct {
	Name        *string `json:"name,omitempty" yaml:"name,omitempty"`
	Brand       *string `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category    *string `json:"category,omitempty" yaml:"category,omitempty"`
	Subcategory *string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	PriceRange  *string `json:"price_range,omitempty" yaml:"price_range,omitempty"`
	URL         *string `json:"url,omitempty" yaml:"url,omitempty"`
	ImageURL    *string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// GetPendingProducts returns products awaiting review, optionally limited to one domain.
func GetPendingProducts(db *sql.DB, domain *string, limit int) ([]*Product, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if limit < 1 {
		limit = defaultPageSize
	}

	return queryProducts(db, selectPendingProductsSQL, domain, StatusPending, limit)
}

func SetProductStatus(db *sql.DB, id, status string) error {
	if db == nil {
		return errDBNotInitialized
	}

	if !Contains(ReviewStatuses, status) {
		return fmt.Errorf("invalid status: %s (permitted options: %v)", status, ReviewStatuses)
	}

	return execProductUpdate(db, id, updateProductStatusSQL, status, now(), id)
}

func UpdateProduct(db *sql.DB, id string, u *ProductUpdate) error {
	if db == nil {
		return errDBNotInitialized
	}

	if u == nil {
		return errors.New("product update is required")
	}

	return execProductUpdate(db, id, updateProductSQL,
		u.Name, u.Brand, u.Category, u.Subcategory, u.PriceRange, u.URL, u.ImageURL, now(), id)
}

func execProductUpdate(db *sql.DB, id, query string, args ...any) error {
	res, err := db.Exec(rebind(db, query), args...)
	if err != nil {
		return fmt.Errorf("failed to update product %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if n == 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	return nil
}
