package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stocktally/internal/core/entity"
	"stocktally/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Brand   string `db:"brand" json:"brand"`
	Barcode string `db:"barcode" json:"barcode"`
	Skipped string `db:"-" json:"skipped"`
	NoTag   string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "deletion_mark", "version", "brand", "barcode"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, len(expected))
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Brand:   "ACME",
		Barcode: "8690000000010",
		Skipped: "ignored",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "ACME", m["brand"])
	assert.Equal(t, "8690000000010", m["barcode"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 5)
}

func TestStructToMap_Pointer(t *testing.T) {
	cat := &mockCatalog{Brand: "Nordik"}

	m := StructToMap(cat)

	assert.Equal(t, "Nordik", m["brand"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("text"))
}
