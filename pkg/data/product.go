package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	TagKindStyle = "style"
	TagKindLens  = "lens"
	TagKindBody  = "body"

	defaultPageSize = 20
	maxPageSize     = 500

	upsertProductSQL = `INSERT INTO product (
			id, domain, name, brand, category, subcategory, price_range, url, image_url, status, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain,
			name = excluded.name,
			brand = excluded.brand,
			category = excluded.category,
			subcategory = excluded.subcategory,
			price_range = excluded.price_range,
			url = excluded.url,
			image_url = excluded.image_url,
			updated_at = excluded.updated_at
	`

	deleteProductTagsSQL = `DELETE FROM product_tag WHERE product_id = ?`

	insertProductTagSQL = `INSERT INTO product_tag (product_id, kind, tag) VALUES (?, ?, ?)
		ON CONFLICT(product_id, kind, tag) DO NOTHING
	`

	productColumns = `p.id, p.domain, p.name, p.brand, p.category, p.subcategory,
			p.price_range, p.url, p.image_url, p.status, p.updated_at`

	selectProductSQL = `SELECT ` + productColumns + `,
			COUNT(DISTINCT m.source_id) AS mention_count
		FROM product p
		LEFT JOIN mention m ON m.product_id = p.id
		WHERE p.id = ?
		GROUP BY ` + productColumns

	productFilterSQL = `WHERE p.domain = ?
		AND p.status = ?
		AND p.category = COALESCE(?, p.category)
		AND LOWER(p.brand) = LOWER(COALESCE(?, p.brand))
		AND (COALESCE(?, '') = '' OR EXISTS (
			SELECT 1 FROM product_tag t
			WHERE t.product_id = p.id AND t.kind = '` + TagKindStyle + `' AND t.tag = ?
		))
		AND (COALESCE(?, '') = '' OR EXISTS (
			SELECT 1 FROM mention mo
			JOIN source s ON s.id = mo.source_id
			WHERE mo.product_id = p.id AND s.occupation = ?
		))
	`

	searchProductsSQL = `SELECT ` + productColumns + `,
			COUNT(DISTINCT m.source_id) AS mention_count
		FROM product p
		LEFT JOIN mention m ON m.product_id = p.id
		` + productFilterSQL + `
		GROUP BY ` + productColumns + `
		ORDER BY mention_count DESC, p.name ASC, p.id ASC
		LIMIT ? OFFSET ?
	`

	countProductsSQL = `SELECT COUNT(*) FROM product p ` + productFilterSQL

	selectCategoryMentionCountsSQL = `SELECT COUNT(DISTINCT m.source_id) AS mention_count
		FROM product p
		LEFT JOIN mention m ON m.product_id = p.id
		WHERE p.domain = ? AND p.category = ? AND p.status = ?
		GROUP BY p.id
		ORDER BY 1 DESC
	`

	selectCategoryCandidatesSQL = `SELECT ` + productColumns + `,
			COUNT(DISTINCT m.source_id) AS mention_count
		FROM product p
		LEFT JOIN mention m ON m.product_id = p.id
		WHERE p.domain = ? AND p.category = ? AND p.status = ? AND p.id != ?
		GROUP BY ` + productColumns + `
		ORDER BY mention_count DESC, p.name ASC
	`

	selectProductTagsSQL = `SELECT product_id, kind, tag
		FROM product_tag
		WHERE product_id IN (%s)
		ORDER BY product_id, kind, tag
	`
)

// Product is a piece of gear mentioned in one or more sources.
type Product struct {
	ID           string   `json:"id" yaml:"id" validate:"required,max=128"`
	Domain       string   `json:"domain" yaml:"domain" validate:"required"`
	Name         string   `json:"name" yaml:"name" validate:"required"`
	Brand        string   `json:"brand,omitempty" yaml:"brand,omitempty"`
	Category     string   `json:"category" yaml:"category" validate:"required"`
	Subcategory  string   `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	PriceRange   string   `json:"price_range,omitempty" yaml:"price_range,omitempty"`
	URL          string   `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	ImageURL     string   `json:"image_url,omitempty" yaml:"image_url,omitempty" validate:"omitempty,url"`
	Status       string   `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	Tags         []string `json:"tags,omitempty" yaml:"tags,omitempty" validate:"dive,required"`
	LensTags     []string `json:"lens_tags,omitempty" yaml:"lens_tags,omitempty" validate:"dive,required"`
	BodyTags     []string `json:"body_tags,omitempty" yaml:"body_tags,omitempty" validate:"dive,required"`
	MentionCount int      `json:"mention_count" yaml:"mention_count"`
	UpdatedAt    string   `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func (p *Product) GetMentionCount() int {
	if p == nil {
		return 0
	}
	return p.MentionCount
}

// ProductCriteria narrows a product listing. Nil filters match everything.
type ProductCriteria struct {
	Domain     string  `json:"domain"`
	Category   *string `json:"category,omitempty"`
	Brand      *string `json:"brand,omitempty"`
	Tag        *string `json:"tag,omitempty"`
	Occupation *string `json:"occupation,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       int     `json:"page,omitempty"`
	PageSize   int     `json:"page_size,omitempty"`
}

// Normalize applies paging defaults and returns the offset.
func (c *ProductCriteria) Normalize() int {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.PageSize < 1 {
		c.PageSize = defaultPageSize
	}
	if c.PageSize > maxPageSize {
		c.PageSize = maxPageSize
	}
	return (c.Page - 1) * c.PageSize
}

func (c *ProductCriteria) status() string {
	if c.Status == nil || *c.Status == "" {
		return StatusApproved
	}
	return *c.Status
}

func (c *ProductCriteria) filterArgs() []any {
	tag := c.Tag
	if tag != nil {
		v := normalizeTag(*tag)
		tag = &v
	}

	return []any{
		c.Domain,
		c.status(),
		c.Category,
		c.Brand,
		tag, tag,
		c.Occupation, c.Occupation,
	}
}

// SaveProducts upserts products and replaces their tags. Review status is only set on insert.
func SaveProducts(db *sql.DB, list []*Product) error {
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

	if err := saveProducts(db, tx, list); err != nil {
		rollbackTransaction(tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	return nil
}

func saveProducts(db *sql.DB, tx *sql.Tx, list []*Product) error {
	productStmt, err := tx.Prepare(rebind(db, upsertProductSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare product insert statement: %w", err)
	}
	defer productStmt.Close()

	deleteStmt, err := tx.Prepare(rebind(db, deleteProductTagsSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare tag delete statement: %w", err)
	}
	defer deleteStmt.Close()

	tagStmt, err := tx.Prepare(rebind(db, insertProductTagSQL))
	if err != nil {
		return fmt.Errorf("failed to prepare tag insert statement: %w", err)
	}
	defer tagStmt.Close()

	ts := now()
	for i, p := range list {
		status := p.Status
		if status == "" {
			status = StatusPending
		}

		if _, err := productStmt.Exec(p.ID, p.Domain, p.Name, p.Brand, p.Category, p.Subcategory,
			p.PriceRange, p.URL, p.ImageURL, status, ts); err != nil {
			slog.Error("failed to insert product", "index", i, "id", p.ID, "error", err)
			return fmt.Errorf("error inserting product[%d]: %s: %w", i, p.ID, err)
		}

		if _, err := deleteStmt.Exec(p.ID); err != nil {
			return fmt.Errorf("error clearing tags for product %s: %w", p.ID, err)
		}

		for kind, tags := range map[string][]string{
			TagKindStyle: p.Tags,
			TagKindLens:  p.LensTags,
			TagKindBody:  p.BodyTags,
		} {
			for _, tag := range tags {
				tag = normalizeTag(tag)
				if tag == "" {
					continue
				}
				if _, err := tagStmt.Exec(p.ID, kind, tag); err != nil {
					return fmt.Errorf("error inserting %s tag %s for product %s: %w", kind, tag, p.ID, err)
				}
			}
		}
	}

	return nil
}

func GetProduct(db *sql.DB, id string) (*Product, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	p, err := scanProduct(db.QueryRow(rebind(db, selectProductSQL), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if err := loadTags(db, []*Product{p}); err != nil {
		return nil, err
	}

	return p, nil
}

// SearchProducts returns one page of products sorted by mention count.
func SearchProducts(db *sql.DB, c *ProductCriteria) ([]*Product, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if c == nil || c.Domain == "" {
		return nil, errors.New("domain is required")
	}

	offset := c.Normalize()
	args := append(c.filterArgs(), c.PageSize, offset)

	return queryProducts(db, searchProductsSQL, args...)
}

func CountProducts(db *sql.DB, c *ProductCriteria) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	if c == nil || c.Domain == "" {
		return 0, errors.New("domain is required")
	}

	var count int
	if err := db.QueryRow(rebind(db, countProductsSQL), c.filterArgs()...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// GetCategoryMentionCounts returns the mention count of every approved product in a category.
func GetCategoryMentionCounts(db *sql.DB, domain, category string) ([]int, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectCategoryMentionCountsSQL), domain, category, StatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	list := make([]int, 0)
	for rows.Next() {
		var c int
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, c)
	}

	return list, rows.Err()
}

// GetCategoryCandidates returns approved products in the same category except excludeID.
func GetCategoryCandidates(db *sql.DB, domain, category, excludeID string) ([]*Product, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	return queryProducts(db, selectCategoryCandidatesSQL, domain, category, StatusApproved, excludeID)
}

func queryProducts(db *sql.DB, query string, args ...any) ([]*Product, error) {
	rows, err := db.Query(rebind(db, query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute product select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		list = append(list, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate product rows: %w", err)
	}

	if err := loadTags(db, list); err != nil {
		return nil, err
	}

	return list, nil
}

func loadTags(db *sql.DB, list []*Product) error {
	if len(list) == 0 {
		return nil
	}

	byID := make(map[string]*Product, len(list))
	args := make([]any, 0, len(list))
	for _, p := range list {
		byID[p.ID] = p
		args = append(args, p.ID)
	}

	rows, err := db.Query(rebind(db, fmt.Sprintf(selectProductTagsSQL, placeholders(len(args)))), args...)
	if err != nil {
		return fmt.Errorf("failed to query product tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind, tag string
		if err := rows.Scan(&id, &kind, &tag); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		p, ok := byID[id]
		if !ok {
			continue
		}
		switch kind {
		case TagKindLens:
			p.LensTags = append(p.LensTags, tag)
		case TagKindBody:
			p.BodyTags = append(p.BodyTags, tag)
		default:
			p.Tags = append(p.Tags, tag)
		}
	}

	return rows.Err()
}

func scanProduct(r rowScanner) (*Product, error) {
	p := &Product{}
	if err := r.Scan(&p.ID, &p.Domain, &p.Name, &p.Brand, &p.Category, &p.Subcategory,
		&p.PriceRange, &p.URL, &p.ImageURL, &p.Status, &p.UpdatedAt, &p.MentionCount); err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
