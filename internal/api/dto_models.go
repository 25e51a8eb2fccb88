package api

import "github.com/example/inventory-backend/internal/models"

// UserData wraps a single user in response data.
type UserData struct {
	User *models.User `json:"user"`
}
