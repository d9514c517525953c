package service

import (
	"context"
	"encoding/json"

	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/internal/repository/specification"
)

// DatasetService maintains the corpus: upserts from the seeder and the
// asynchronous embedding kick-off.
type DatasetService struct {
	datasetRepo      contract.DatasetRepository
	publisherService IPublisherService
	log              logger.ILogger
}

func NewDatasetService(datasetRepo contract.DatasetRepository, publisherService IPublisherService, log logger.ILogger) *DatasetService {
	return &DatasetService{
		datasetRepo:      datasetRepo,
		publisherService: publisherService,
		log:              log,
	}
}

// Upsert stores a dataset record and queues its embedding job. The write
// succeeds even when the queue is down; the embeddings simply lag.
func (s *DatasetService) Upsert(ctx context.Context, dataset *entity.Dataset) error {
	existing, err := s.datasetRepo.FindOne(ctx, specification.ByNames{Names: []string{dataset.Name}})
	if err != nil {
		return serverutils.NewAppError("STORAGE_QUERY_FAILURE", "dataset lookup failed", 500, err)
	}

	if existing == nil {
		err = s.datasetRepo.Create(ctx, dataset)
	} else {
		err = s.datasetRepo.Update(ctx, dataset)
	}
	if err != nil {
		return serverutils.NewAppError("STORAGE_QUERY_FAILURE", "dataset write failed", 500, err)
	}

	payload := dto.PublishEmbedDatasetMessage{DatasetName: dataset.Name}
	payloadJson, _ := json.Marshal(payload)
	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		s.log.Warn("dataset", "Failed to queue embedding job", map[string]interface{}{
			"dataset": dataset.Name,
			"error":   err.Error(),
		})
	}

	return nil
}

// Listing pages are capped; callers wanting the whole corpus walk the
// offset.
const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// List pages through the corpus, most popular first. This is the browse
// surface; search traffic goes through the engine.
func (s *DatasetService) List(ctx context.Context, limit, offset int) (*dto.ListDatasetsResponse, error) {
	if limit <= 0 || limit > maxListPageSize {
		limit = defaultListPageSize
	}
	if offset < 0 {
		offset = 0
	}

	datasets, err := s.datasetRepo.FindAll(ctx,
		specification.OrderBy{Field: "popularity", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, serverutils.NewAppError("STORAGE_QUERY_FAILURE", "dataset listing failed", 500, err)
	}

	total, err := s.datasetRepo.Count(ctx)
	if err != nil {
		return nil, serverutils.NewAppError("STORAGE_QUERY_FAILURE", "dataset count failed", 500, err)
	}

	results := make([]dto.DatasetResultDTO, 0, len(datasets))
	for _, d := range datasets {
		results = append(results, datasetToDTO(d, 0))
	}

	return &dto.ListDatasetsResponse{
		Datasets: results,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}, nil
}

func (s *DatasetService) Count(ctx context.Context) (int64, error) {
	return s.datasetRepo.Count(ctx)
}
