package models

import "time"

type ProductType string

const (
	ProductEbook    ProductType = "ebook"
	ProductTemplate ProductType = "template"
	ProductCourse   ProductType = "course"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductEbook, ProductTemplate, ProductCourse:
		return true
	}
	return false
}

const (
	ProductPending   = "pending"
	ProductCompleted = "completed"
)

// Asset is an optional distribution asset returned by the generator
// (cover image, social post, landing page snippet).
type Asset struct {
	Kind    string `json:"kind"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
}

// Product is a generated digital product owned by one user.
type Product struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Prompt        string      `json:"prompt"`
	ProductType   ProductType `json:"productType"`
	Status        string      `json:"status"`
	Title         string      `json:"title,omitempty"`
	Description   string      `json:"description,omitempty"`
	Content       string      `json:"content,omitempty"`
	PriceCents    int64       `json:"priceCents"`
	Currency      string      `json:"currency,omitempty"`
	MarketingCopy string      `json:"marketingCopy,omitempty"`
	Assets        []Asset     `json:"assets"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
