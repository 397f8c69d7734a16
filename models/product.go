package models

import (
	"strings"
	"time"
)

type SizeStock struct {
	Size  string `bson:"size" json:"size"`
	Stock int    `bson:"stock" json:"stock"`
}

// Product is a catalogue item. When Sizes is non-empty, Stock always equals
// the sum of the per-size stocks.
type Product struct {
	ID             string      `bson:"id" json:"id"`
	ProfessionalID string      `bson:"professionalId" json:"professionalId"`
	Title          string      `bson:"title" json:"title"`
	Price          float64     `bson:"price" json:"price"`
	Currency       string      `bson:"currency" json:"currency"`
	Stock          int         `bson:"stock" json:"stock"`
	Sizes          []SizeStock `bson:"sizes,omitempty" json:"sizes,omitempty"`
	Version        int         `bson:"version" json:"version"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

func (p *Product) HasSizes() bool {
	return len(p.Sizes) > 0
}

// SizeIndex finds a size entry case-insensitively, or returns -1.
func (p *Product) SizeIndex(size string) int {
	size = strings.TrimSpace(size)
	for i, s := range p.Sizes {
		if strings.EqualFold(s.Size, size) {
			return i
		}
	}
	return -1
}

// SyncStock derives the flat stock from per-size entries, when there are any.
func (p *Product) SyncStock() {
	if !p.HasSizes() {
		return
	}
	total := 0
	for _, s := range p.Sizes {
		total += s.Stock
	}
	p.Stock = total
}
