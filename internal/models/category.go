package models

import (
	"fmt"
	"time"

	"github.com/Facundo-Gordillo/MYFINANCES/internal/docstore"
)

// DefaultCategoryColor is used when a category is created without an explicit
// display color.
const DefaultCategoryColor = "#000000"

// Category is a user-defined label with a display color. Transactions
// reference categories by id and must tolerate the reference going stale
// after a category is deleted.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// FieldColor is the document field key for the category color.
const FieldColor = "color"

// Fields encodes the category into document store fields.
func (c Category) Fields() map[string]any {
	color := c.Color
	if color == "" {
		color = DefaultCategoryColor
	}
	return map[string]any{
		FieldName:  c.Name,
		FieldColor: color,
	}
}

// DecodeCategory decodes a store document into a Category.
func DecodeCategory(doc docstore.Document) (Category, error) {
	name, err := stringField(doc.Fields, FieldName)
	if err != nil {
		return Category{}, fmt.Errorf("category %s: %w", doc.ID, err)
	}
	color, err := stringField(doc.Fields, FieldColor)
	if err != nil {
		return Category{}, fmt.Errorf("category %s: %w", doc.ID, err)
	}

	return Category{
		ID:        doc.ID,
		Name:      name,
		Color:     color,
		CreatedAt: doc.CreatedAt,
	}, nil
}
