package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/gearpulse/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImportYAML = `domain: desktour
sources:
  - id: yt-abc
    type: video
    url: https://www.youtube.com/watch?v=abc
    occupation: developer
  - id: blog-1
    type: article
    url: https://example.com/my-desk
    occupation: writer
products:
  - id: mx-master
    name: MX Master 3S
    brand: Logi
    category: mouse
    price_range: 5000_10000
    tags: [minimal, wireless]
  - id: hhkb
    name: HHKB Professional
    brand: PFU
    category: keyboard
    tags: [minimal]
mentions:
  - product_id: mx-master
    source_id: yt-abc
  - product_id: mx-master
    source_id: blog-1
    note: right side of the desk
  - product_id: hhkb
    source_id: yt-abc
`

func testDomains() map[string]*config.Domain {
	return map[string]*config.Domain{
		"desktour": {
			PriceRanges: []string{"under_5000", "5000_10000", "10000_30000"},
			Categories:  []string{"mouse", "keyboard"},
			Tags:        []string{"minimal", "wireless"},
		},
		"camera": {
			PriceRanges: []string{"under_50000"},
		},
	}
}

func writeImportFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestImportFile_YAML(t *testing.T) {
	db := setupTestDB(t)
	path := writeImportFile(t, "batch.yaml", testImportYAML)

	res, err := ImportFile(db, path, nil)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Sources: 2, Products: 2, Mentions: 3}, res)

	p, err := GetProduct(db, "mx-master")
	require.NoError(t, err)
	assert.Equal(t, "desktour", p.Domain)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, 2, p.MentionCount)
}

func TestImportFile_Approve(t *testing.T) {
	db := setupTestDB(t)
	path := writeImportFile(t, "batch.yml", testImportYAML)

	_, err := ImportFile(db, path, &ImportOptions{Approve: true, Domains: testDomains()})
	require.NoError(t, err)

	list, err := SearchProducts(db, &ProductCriteria{Domain: "desktour"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "mx-master", list[0].ID)
}

func TestImportFile_DomainVocabularies(t *testing.T) {
	db := setupTestDB(t)
	domains := testDomains()

	// tags are matched after normalization
	path := writeImportFile(t, "batch.yaml", "domain: desktour\nproducts:\n  - id: x\n    name: X\n    category: mouse\n    price_range: under_5000\n    tags: [\" Minimal\"]\n")
	_, err := ImportFile(db, path, &ImportOptions{Domains: domains})
	require.NoError(t, err)

	// empty vocabularies accept any value
	domains["desktour"].Categories = nil
	domains["desktour"].Tags = nil
	path = writeImportFile(t, "batch.yaml", "domain: desktour\nproducts:\n  - id: y\n    name: Y\n    category: lamp\n    tags: [neon]\n")
	_, err = ImportFile(db, path, &ImportOptions{Domains: domains})
	require.NoError(t, err)

	// price ranges are always checked
	path = writeImportFile(t, "batch.yaml", "domain: desktour\nproducts:\n  - id: z\n    name: Z\n    category: lamp\n    price_range: cheap\n")
	_, err = ImportFile(db, path, &ImportOptions{Domains: domains})
	assert.ErrorContains(t, err, "invalid price range")

	// without domain settings nothing is checked
	_, err = ImportFile(db, path, nil)
	assert.NoError(t, err)
}

func TestImportFile_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	path := writeImportFile(t, "batch.yaml", testImportYAML)

	_, err := ImportFile(db, path, &ImportOptions{Approve: true})
	require.NoError(t, err)
	_, err = ImportFile(db, path, nil)
	require.NoError(t, err)

	state, err := GetDataState(db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), state["product"])
	assert.Equal(t, int64(3), state["mention"])
	assert.Equal(t, int64(2), state["approved"], "re-import keeps review status")
}

func TestImportFile_AppliesSubstitutions(t *testing.T) {
	db := setupTestDB(t)
	path := writeImportFile(t, "batch.yaml", testImportYAML)

	_, err := ImportFile(db, path, nil)
	require.NoError(t, err)
	_, err = SaveAndApplySub(db, "brand", "Logi", "Logitech")
	require.NoError(t, err)

	res, err := ImportFile(db, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Substitutions)

	p, err := GetProduct(db, "mx-master")
	require.NoError(t, err)
	assert.Equal(t, "Logitech", p.Brand)
}

func TestImportFile_JSON(t *testing.T) {
	db := setupTestDB(t)
	path := writeImportFile(t, "batch.json", `{
		"domain": "camera",
		"products": [{"id": "a7iv", "name": "A7 IV", "category": "body", "body_tags": ["full-frame"]}]
	}`)

	res, err := ImportFile(db, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Products)

	p, err := GetProduct(db, "a7iv")
	require.NoError(t, err)
	assert.Equal(t, []string{"full-frame"}, p.BodyTags)
}

func TestImportFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		opts    *ImportOptions
		errText string
	}{
		{"missing name", "b.yaml", "domain: desktour\nproducts:\n  - id: x\n    category: mouse\n", nil, "Name"},
		{"bad source type", "b.yaml", "domain: desktour\nsources:\n  - id: s\n    type: podcast\n    url: https://example.com\n", nil, "oneof"},
		{"bad status", "b.yaml", "domain: desktour\nproducts:\n  - id: x\n    name: X\n    category: mouse\n    status: live\n", nil, "Status"},
		{"unknown mention", "b.yaml", "domain: desktour\nmentions:\n  - product_id: x\n    source_id: y\n", nil, "unknown product"},
		{"domain", "b.yaml", "domain: garden\nproducts:\n  - id: x\n    name: X\n    category: hose\n", &ImportOptions{Domains: testDomains()}, "invalid domain"},
		{"price range", "b.yaml", "domain: desktour\nproducts:\n  - id: x\n    name: X\n    category: mouse\n    price_range: 5000_15000\n", &ImportOptions{Domains: testDomains()}, "invalid price range"},
		{"category", "b.yaml", "domain: desktour\nproducts:\n  - id: x\n    name: X\n    category: lamp\n", &ImportOptions{Domains: testDomains()}, "invalid category"},
		{"tag", "b.yaml", "domain: desktour\nproducts:\n  - id: x\n    name: X\n    category: mouse\n    tags: [neon]\n", &ImportOptions{Domains: testDomains()}, "invalid tag"},
		{"extension", "b.txt", "domain: desktour", nil, "unsupported"},
		{"syntax", "b.json", "{", nil, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			_, err := ImportFile(db, writeImportFile(t, tt.file, tt.content), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)

			state, err := GetDataState(db)
			require.NoError(t, err)
			assert.Equal(t, int64(0), state["product"])
		})
	}
}

func TestImportFile_MissingFile(t *testing.T) {
	db := setupTestDB(t)
	_, err := ImportFile(db, filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
