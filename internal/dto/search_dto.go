package dto

import "github.com/google/uuid"

type StartSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
}

type SearchRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Query     string    `json:"query" validate:"required,min=1"`
}

// DatasetResultDTO is one ranked corpus entry in a search response.
type DatasetResultDTO struct {
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	Similarity            float64  `json:"similarity"`
	ColumnCount           int      `json:"column_count"`
	Popularity            int      `json:"popularity"`
	Tags                  []string `json:"tags,omitempty"`
	TemporalGranularity   []string `json:"temporal_granularity,omitempty"`
	GeographicGranularity []string `json:"geographic_granularity,omitempty"`
}

type SearchResponse struct {
	SessionId  uuid.UUID `json:"session_id"`
	Action     string    `json:"action"` // "search" | "refine" | "reset"
	RefineType string    `json:"refine_type,omitempty"`
	// Preview is the short list for display; Results carries the full
	// ranked set for callers that want more than the preview.
	Preview   []DatasetResultDTO `json:"preview"`
	Results   []DatasetResultDTO `json:"results"`
	SpaceSize int                `json:"space_size"`
	Warnings  []string           `json:"warnings,omitempty"`
}
