package api

import (
	"github.com/starford/docfind/internal/docservice"
	"github.com/starford/docfind/internal/models"
)

// IndexRequest is the request body for starting an index job.
type IndexRequest struct {
	Paths []string `json:"paths" example:"/home/me/Documents" validate:"required"`
}

// IndexAccepted is returned when an index job was started.
type IndexAccepted struct {
	JobID  string `json:"job_id" example:"6f1c2d3e-..." validate:"required"`
	Status string `json:"status" example:"running" validate:"required"`
}

// SearchResult is a single ranked hit (aliased from the domain layer).
type SearchResult = models.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Query   string         `json:"query" example:"q3 report" validate:"required"`
	Results []SearchResult `json:"results" validate:"required"`
}

// StatsResponse describes the store (aliased from the domain layer).
type StatsResponse = docservice.Stats
