package implementation

import (
	"context"
	"errors"
	"fmt"

	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/mapper"
	"dataset-discovery-be/internal/model"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/internal/repository/specification"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DatasetRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DatasetMapper
}

func NewDatasetRepository(db *gorm.DB) contract.DatasetRepository {
	return &DatasetRepositoryImpl{
		db:     db,
		mapper: mapper.NewDatasetMapper(),
	}
}

func (r *DatasetRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DatasetRepositoryImpl) Create(ctx context.Context, dataset *entity.Dataset) error {
	m := r.mapper.ToModel(dataset)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*dataset = *r.mapper.ToEntity(m)
	return nil
}

func (r *DatasetRepositoryImpl) CreateBulk(ctx context.Context, datasets []*entity.Dataset) error {
	models := make([]*model.Dataset, len(datasets))
	for i, d := range datasets {
		models[i] = r.mapper.ToModel(d)
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*datasets[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DatasetRepositoryImpl) Update(ctx context.Context, dataset *entity.Dataset) error {
	m := r.mapper.ToModel(dataset)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*dataset = *r.mapper.ToEntity(m)
	return nil
}

func (r *DatasetRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Dataset, error) {
	var m model.Dataset
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DatasetRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Dataset, error) {
	var models []*model.Dataset
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Dataset, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DatasetRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.Dataset{}).Count(&count).Error
	return count, err
}

func (r *DatasetRepositoryImpl) SearchSimilar(ctx context.Context, column contract.EmbeddingColumn, embedding []float32, candidateSet []string, limit int) ([]*entity.ScoredDataset, error) {
	if limit <= 0 {
		limit = 50
	}
	if candidateSet != nil && len(candidateSet) == 0 {
		// Restricted to nothing; not an error
		return []*entity.ScoredDataset{}, nil
	}

	type result struct {
		model.Dataset
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (column <=> query_vector) recovers the similarity.
	query := r.db.WithContext(ctx).
		Table("datasets").
		Select(fmt.Sprintf("datasets.*, 1 - (%s <=> ?) as similarity", column), queryVector)

	if candidateSet != nil {
		query = query.Where("name IN ?", candidateSet)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error

	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredDataset, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredDataset{
			Dataset:    r.mapper.ToEntity(&res.Dataset),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *DatasetRepositoryImpl) UpdateEmbeddings(ctx context.Context, name string, schemaEmbedding, queryEmbedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.Dataset{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"schema_embedding": pgvector.NewVector(schemaEmbedding),
			"query_embedding":  pgvector.NewVector(queryEmbedding),
		}).Error
}
