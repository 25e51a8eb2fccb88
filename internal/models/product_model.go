package models

import "time"

// Product is a row of the products table.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProduct carries the fields required to create a product.
type NewProduct struct {
	Name  string
	Price float64
	Stock int64
}

// ProductPatch is a partial product update. A nil field is left untouched;
// a non-nil field is written, including zero values.
type ProductPatch struct {
	Name  *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Price *float64 `json:"price" binding:"omitempty,gte=0,lte=999999999"`
	Stock *int64   `json:"stock" binding:"omitempty,gte=0,lte=999999"`
}

// IsEmpty reports whether no field is set.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Stock == nil
}
