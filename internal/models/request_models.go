package models

// CreateProductRequest is the body of POST /api/products.
// Price and Stock are pointers so that an explicit zero passes "required".
type CreateProductRequest struct {
	Name  string   `json:"name" binding:"required,min=1,max=255"`
	Price *float64 `json:"price" binding:"required,gte=0,lte=999999999"`
	Stock *int64   `json:"stock" binding:"required,gte=0,lte=999999"`
}

// ToNewProduct converts a validated request.
func (r CreateProductRequest) ToNewProduct() NewProduct {
	np := NewProduct{Name: r.Name}
	if r.Price != nil {
		np.Price = *r.Price
	}
	if r.Stock != nil {
		np.Stock = *r.Stock
	}
	return np
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email,max=255"`
	Password string  `json:"password" binding:"required,min=6,max=128"`
	Username *string `json:"username" binding:"omitempty,min=1,max=255"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}
