package mapper

import (
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/model"

	"gorm.io/datatypes"
)

type DatasetMapper struct{}

func NewDatasetMapper() *DatasetMapper {
	return &DatasetMapper{}
}

func (m *DatasetMapper) ToEntity(d *model.Dataset) *entity.Dataset {
	if d == nil {
		return nil
	}
	return &entity.Dataset{
		Name:                  d.Name,
		Description:           d.Description,
		SchemaText:            d.SchemaText,
		Tags:                  d.Tags,
		ColumnCount:           d.ColumnCount,
		Popularity:            d.Popularity,
		TemporalGranularity:   d.TemporalGranularity,
		GeographicGranularity: d.GeographicGranularity,
		ExampleRecords:        d.ExampleRecords,
		PreviousQueries:       d.PreviousQueries,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func (m *DatasetMapper) ToModel(d *entity.Dataset) *model.Dataset {
	if d == nil {
		return nil
	}
	return &model.Dataset{
		Name:                  d.Name,
		Description:           d.Description,
		SchemaText:            d.SchemaText,
		Tags:                  datatypes.NewJSONSlice(d.Tags),
		ColumnCount:           d.ColumnCount,
		Popularity:            d.Popularity,
		TemporalGranularity:   datatypes.NewJSONSlice(d.TemporalGranularity),
		GeographicGranularity: datatypes.NewJSONSlice(d.GeographicGranularity),
		ExampleRecords:        datatypes.JSON(d.ExampleRecords),
		PreviousQueries:       datatypes.NewJSONSlice(d.PreviousQueries),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}
