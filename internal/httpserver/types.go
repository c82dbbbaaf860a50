package httpserver

import "go-catalog-cache/internal/models"

// unavailableMessage is shown when no cached value exists and the data store cannot be reached
const unavailableMessage = "catalog temporarily unavailable, retry"

// ProductListResponse represents one page of products
type ProductListResponse struct {
	Success bool             `json:"success"`
	Items   []models.Product `json:"items"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// DataResponse wraps a single catalog payload
type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}
