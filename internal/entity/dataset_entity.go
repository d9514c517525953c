package entity

import "time"

type Dataset struct {
	Name                  string
	Description           string
	SchemaText            string
	Tags                  []string
	ColumnCount           int
	Popularity            int
	TemporalGranularity   []string
	GeographicGranularity []string
	ExampleRecords        []byte // raw JSON rows, opaque to the core
	PreviousQueries       []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ScoredDataset pairs a dataset with its cosine similarity for one
// similarity query.
type ScoredDataset struct {
	Dataset    *Dataset
	Similarity float64
}
