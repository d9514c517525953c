package service

import (
	"context"
	"testing"

	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listFixtureRepo() *fakeDatasetRepo {
	return &fakeDatasetRepo{datasets: []*entity.Dataset{
		{Name: "rarely_used", Popularity: 1},
		{Name: "crowd_favourite", Popularity: 90},
		{Name: "steady", Popularity: 40},
	}}
}

func TestListPagesByPopularity(t *testing.T) {
	svc := NewDatasetService(listFixtureRepo(), nil, logger.NewNopLogger())

	res, err := svc.List(context.Background(), 2, 0)
	require.NoError(t, err)
	require.Len(t, res.Datasets, 2)
	assert.Equal(t, "crowd_favourite", res.Datasets[0].Name)
	assert.Equal(t, "steady", res.Datasets[1].Name)
	assert.Equal(t, int64(3), res.Total)

	res, err = svc.List(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, res.Datasets, 1)
	assert.Equal(t, "rarely_used", res.Datasets[0].Name)
}

func TestListClampsPageSize(t *testing.T) {
	svc := NewDatasetService(listFixtureRepo(), nil, logger.NewNopLogger())

	res, err := svc.List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, defaultListPageSize, res.Limit)
	assert.Equal(t, 0, res.Offset)
	assert.Len(t, res.Datasets, 3)

	res, err = svc.List(context.Background(), maxListPageSize+1, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultListPageSize, res.Limit)
}

func TestListOffsetPastEnd(t *testing.T) {
	svc := NewDatasetService(listFixtureRepo(), nil, logger.NewNopLogger())

	res, err := svc.List(context.Background(), 10, 50)
	require.NoError(t, err)
	assert.Empty(t, res.Datasets)
	assert.Equal(t, int64(3), res.Total)
}
