package handlers

import (
	"github.com/abrezinsky/ownervote/internal/models"
)

// CloseResponse is the response for closing a vote
type CloseResponse struct {
	Vote    *models.Vote    `json:"vote"`
	Results *models.Results `json:"results"`
}

// CountResponse is the response for the vote counters
type CountResponse struct {
	Count int `json:"count"`
}

// HealthResponse is the response for the health check
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
