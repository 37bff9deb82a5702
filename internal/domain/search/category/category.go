// Package category defines taxonomy node value types.
package category

import "fmt"

// Category is one node of the procurement subject-matter taxonomy, carrying
// its precomputed embedding. Read-only reference data.
type Category struct {
	id        string
	code      string
	label     string
	embedding []float32
}

// New validates and creates a Category.
func New(id, code, label string, embedding []float32) (Category, error) {
	if id == "" {
		return Category{}, fmt.Errorf("category id is required")
	}
	if len(embedding) == 0 {
		return Category{}, fmt.Errorf("category %s has no embedding", id)
	}
	return Category{id: id, code: code, label: label, embedding: embedding}, nil
}

// ID returns the category identifier.
func (c *Category) ID() string { return c.id }

// Code returns the hierarchical taxonomy code.
func (c *Category) Code() string { return c.code }

// Label returns the human-readable label.
func (c *Category) Label() string { return c.label }

// Embedding returns the precomputed category embedding.
func (c *Category) Embedding() []float32 { return c.embedding }

// Scored pairs a category with its routing similarity score.
type Scored struct {
	Category Category
	Score    float64
}
