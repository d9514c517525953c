package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// Dataset is the corpus row. Name is the unique key the search space is
// expressed in. Two embeddings are stored per dataset: one over the
// (inferred) table schema text, one over plausible previous user queries.
// The vector size in the column tags must match embedding.Dimension; the
// migration tool verifies they agree.
type Dataset struct {
	Name                  string                         `gorm:"primaryKey;type:text"`
	Description           string                         `gorm:"type:text"`
	SchemaText            string                         `gorm:"type:text"` // inferred table schema rendering
	Tags                  datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	ColumnCount           int                            `gorm:"column:column_count"`
	Popularity            int                            `gorm:""`
	TemporalGranularity   datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	GeographicGranularity datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	ExampleRecords        datatypes.JSON                 `gorm:"type:jsonb"`
	PreviousQueries       datatypes.JSONSlice[string]    `gorm:"type:jsonb"`
	SchemaEmbedding       pgvector.Vector                `gorm:"type:vector(768)"`
	QueryEmbedding        pgvector.Vector                `gorm:"type:vector(768)"`
	CreatedAt             time.Time                      `gorm:"autoCreateTime"`
	UpdatedAt             time.Time                      `gorm:"autoUpdateTime"`
}

func (Dataset) TableName() string {
	return "datasets"
}
