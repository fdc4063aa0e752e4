package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	Products  []Product `json:"products,omitempty"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	PhotoRef    string          `json:"photo,omitempty"`
	CategoryID  string          `json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Banner struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	ImageURL  string    `json:"image_url"`
	Link      string    `json:"link,omitempty"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultCategoryColor is used when a category is saved without a color.
const DefaultCategoryColor = "#000000"
