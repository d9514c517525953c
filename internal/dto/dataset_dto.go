package dto

import "encoding/json"

// PublishEmbedDatasetMessage is the payload of the asynchronous embedding
// pipeline: the named dataset gets both stored vectors recomputed.
type PublishEmbedDatasetMessage struct {
	DatasetName string `json:"dataset_name"`
}

type UpsertDatasetRequest struct {
	Name                  string          `json:"name" validate:"required"`
	Description           string          `json:"description" validate:"required"`
	SchemaText            string          `json:"schema_text"`
	Tags                  []string        `json:"tags"`
	ColumnCount           int             `json:"column_count" validate:"gte=0"`
	Popularity            int             `json:"popularity" validate:"gte=0"`
	TemporalGranularity   []string        `json:"temporal_granularity"`
	GeographicGranularity []string        `json:"geographic_granularity"`
	ExampleRecords        json.RawMessage `json:"example_records"`
	PreviousQueries       []string        `json:"previous_queries"`
}

// ListDatasetsResponse is one page of the corpus, most popular first.
type ListDatasetsResponse struct {
	Datasets []DatasetResultDTO `json:"datasets"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}
