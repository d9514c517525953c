package service

import (
	"context"
	"sort"
	"testing"

	"dataset-discovery-be/internal/config"
	"dataset-discovery-be/internal/constant"
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/internal/repository/memory"
	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/pkg/hyse"
	"dataset-discovery-be/pkg/oracle"
	"dataset-discovery-be/pkg/predicate"
	"dataset-discovery-be/pkg/schema"
	"dataset-discovery-be/pkg/searchspace"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	action    oracle.Action
	actionErr error
	semantic  []schema.LogicalField
	raw       []schema.LogicalField
	clauses   []predicate.Clause
}

func (f *fakeOracle) InferAction(ctx context.Context, currentQuery, previousQuery string) (oracle.Action, error) {
	if f.actionErr != nil {
		return oracle.Action{}, f.actionErr
	}
	return f.action, nil
}

func (f *fakeOracle) InferMentionedFields(ctx context.Context, query string, category schema.FieldCategory) ([]schema.LogicalField, error) {
	if category == schema.CategorySemantic {
		return f.semantic, nil
	}
	return f.raw, nil
}

func (f *fakeOracle) InferFilterClauses(ctx context.Context, query string, fields []schema.LogicalField) ([]predicate.Clause, error) {
	return f.clauses, nil
}

type fakeEngine struct {
	bySchema      []hyse.RankedDataset
	byQuery       []hyse.RankedDataset
	err           error
	lastCandidate []string
}

func (f *fakeEngine) SearchBySchema(ctx context.Context, task string, candidateSet []string, topK int) ([]hyse.RankedDataset, error) {
	f.lastCandidate = candidateSet
	if f.err != nil {
		return nil, f.err
	}
	return f.bySchema, nil
}

func (f *fakeEngine) SearchByQueryText(ctx context.Context, query string, candidateSet []string, topK int) ([]hyse.RankedDataset, error) {
	f.lastCandidate = candidateSet
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery, nil
}

// fakeDatasetRepo interprets the candidate-set and column_count
// specifications the orchestrator scenarios produce.
type fakeDatasetRepo struct {
	datasets []*entity.Dataset
}

func (f *fakeDatasetRepo) Create(ctx context.Context, dataset *entity.Dataset) error { return nil }
func (f *fakeDatasetRepo) CreateBulk(ctx context.Context, datasets []*entity.Dataset) error {
	return nil
}
func (f *fakeDatasetRepo) Update(ctx context.Context, dataset *entity.Dataset) error { return nil }

func (f *fakeDatasetRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Dataset, error) {
	matches, err := f.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (f *fakeDatasetRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Dataset, error) {
	matches := append([]*entity.Dataset(nil), f.datasets...)
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByNames:
			allowed := make(map[string]bool, len(s.Names))
			for _, name := range s.Names {
				allowed[name] = true
			}
			var kept []*entity.Dataset
			for _, d := range matches {
				if allowed[d.Name] {
					kept = append(kept, d)
				}
			}
			matches = kept
		case specification.ScalarPredicate:
			if s.Column != "column_count" || s.Operator != ">" {
				continue
			}
			threshold := int(s.Value.(int64))
			var kept []*entity.Dataset
			for _, d := range matches {
				if d.ColumnCount > threshold {
					kept = append(kept, d)
				}
			}
			matches = kept
		case specification.OrderBy:
			if s.Field == "popularity" && s.Desc {
				sort.SliceStable(matches, func(i, j int) bool {
					return matches[i].Popularity > matches[j].Popularity
				})
			}
		case specification.Pagination:
			if s.Offset >= len(matches) {
				matches = nil
				break
			}
			matches = matches[s.Offset:]
			if s.Limit > 0 && s.Limit < len(matches) {
				matches = matches[:s.Limit]
			}
		}
	}
	return matches, nil
}

func (f *fakeDatasetRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := f.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func (f *fakeDatasetRepo) SearchSimilar(ctx context.Context, column contract.EmbeddingColumn, embedding []float32, candidateSet []string, limit int) ([]*entity.ScoredDataset, error) {
	return nil, nil
}

func (f *fakeDatasetRepo) UpdateEmbeddings(ctx context.Context, name string, schemaEmbedding, queryEmbedding []float32) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Ai: config.AIConfig{
			LLMTimeoutSeconds:     5,
			EmbedTimeoutSeconds:   5,
			StorageTimeoutSeconds: 5,
		},
		Search: config.SearchConfig{
			SchemaVariants: 2,
			InitialTopK:    50,
			RefineTopK:     50,
		},
	}
}

func rankedFixture(datasets ...*entity.Dataset) []hyse.RankedDataset {
	ranked := make([]hyse.RankedDataset, 0, len(datasets))
	score := 0.9
	for _, d := range datasets {
		ranked = append(ranked, hyse.RankedDataset{Dataset: d, Score: score, Variants: 2})
		score -= 0.1
	}
	return ranked
}

func newTestService(engine *fakeEngine, intentor *fakeOracle, repo *fakeDatasetRepo) (*SearchService, *memory.SessionRepository) {
	log := logger.NewNopLogger()
	sessionRepo := memory.NewSessionRepository()
	svc := NewSearchService(
		sessionRepo,
		repo,
		engine,
		intentor,
		searchspace.NewManager(log),
		nil,
		log,
		testConfig(),
	)
	return svc, sessionRepo
}

func startedSession(t *testing.T, svc *SearchService, engine *fakeEngine, query string) uuid.UUID {
	t.Helper()

	started, err := svc.StartSession(context.Background())
	require.NoError(t, err)

	_, err = svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: started.SessionId,
		Query:     query,
	})
	require.NoError(t, err)
	return started.SessionId
}

func TestEndToEndRefinementScenario(t *testing.T) {
	electionA := &entity.Dataset{Name: "election_turnout_by_state", ColumnCount: 12}
	electionB := &entity.Dataset{Name: "voter_registration", ColumnCount: 8}
	electionC := &entity.Dataset{Name: "county_election_results", ColumnCount: 15}

	engine := &fakeEngine{bySchema: rankedFixture(electionA, electionB, electionC)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{electionA, electionB, electionC}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "presidential election turnout datasets")

	session, found := sessionRepo.Get(sessionID.String())
	require.True(t, found)
	assert.Equal(t, []string{"election_turnout_by_state", "voter_registration", "county_election_results"}, session.Space.Current)
	assert.Nil(t, engine.lastCandidate, "first turn must be unrestricted")

	// Second turn: structured refinement on column_count
	intentor.action = oracle.Action{Refine: true}
	intentor.raw = []schema.LogicalField{schema.FieldColumnCount}
	intentor.clauses = []predicate.Clause{{Field: schema.FieldColumnCount, ClauseText: "> 10"}}

	res, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: sessionID,
		Query:     "only show ones with more than 10 columns",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.RefineTypeRaw, res.RefineType)

	session, _ = sessionRepo.Get(sessionID.String())
	assert.Equal(t, []string{"election_turnout_by_state", "county_election_results"}, session.Space.Current)
	assert.Equal(t, []string{"election_turnout_by_state", "voter_registration", "county_election_results"}, session.Space.PreviousSnapshot)
	for _, r := range res.Results {
		assert.Greater(t, r.ColumnCount, 10)
	}
	require.Len(t, session.Turns, 4)
	assert.True(t, session.Turns[2].MentionsRaw)
	assert.False(t, session.Turns[2].MentionsSemantic)
}

func TestAmbiguousClassificationLeavesSessionUntouched(t *testing.T) {
	d := &entity.Dataset{Name: "d1", ColumnCount: 3}
	engine := &fakeEngine{bySchema: rankedFixture(d)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{d}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "first query")
	before, _ := sessionRepo.Get(sessionID.String())
	turnsBefore := len(before.Turns)

	intentor.actionErr = oracle.ErrClassificationAmbiguous

	_, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: sessionID,
		Query:     "???",
	})
	require.Error(t, err)

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CLASSIFICATION_AMBIGUOUS", appErr.Code)
	assert.Equal(t, 422, appErr.Status)

	after, _ := sessionRepo.Get(sessionID.String())
	assert.Len(t, after.Turns, turnsBefore, "failed turn must append nothing")
	assert.Equal(t, before.Space.Current, after.Space.Current)
	assert.Equal(t, "first query", after.LastQuery)
}

func TestResetRestoresPreviousSnapshot(t *testing.T) {
	d1 := &entity.Dataset{Name: "d1", ColumnCount: 12}
	d2 := &entity.Dataset{Name: "d2", ColumnCount: 4}
	engine := &fakeEngine{bySchema: rankedFixture(d1, d2)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{d1, d2}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "some data")

	// Narrow to d1
	intentor.action = oracle.Action{Refine: true}
	intentor.raw = []schema.LogicalField{schema.FieldColumnCount}
	intentor.clauses = []predicate.Clause{{Field: schema.FieldColumnCount, ClauseText: "> 10"}}
	_, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{SessionId: sessionID, Query: "more than 10 columns"})
	require.NoError(t, err)

	session, _ := sessionRepo.Get(sessionID.String())
	require.Equal(t, []string{"d1"}, session.Space.Current)

	// Reset restores the pre-refine space
	intentor.action = oracle.Action{Reset: true}
	intentor.raw = nil
	res, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{SessionId: sessionID, Query: "something completely different"})
	require.NoError(t, err)
	assert.Equal(t, "reset", res.Action)

	session, _ = sessionRepo.Get(sessionID.String())
	assert.Equal(t, []string{"d1", "d2"}, session.Space.Current)

	// Reset twice in a row yields the same set
	_, err = svc.Reset(context.Background(), sessionID)
	require.NoError(t, err)
	session, _ = sessionRepo.Get(sessionID.String())
	assert.Equal(t, []string{"d1", "d2"}, session.Space.Current)
}

func TestBothRefineKeepsSemanticRanking(t *testing.T) {
	d1 := &entity.Dataset{Name: "d1", ColumnCount: 12}
	d2 := &entity.Dataset{Name: "d2", ColumnCount: 20}
	d3 := &entity.Dataset{Name: "d3", ColumnCount: 2}

	engine := &fakeEngine{bySchema: rankedFixture(d1, d2, d3)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{d1, d2, d3}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "initial")

	// Semantic branch returns d2 ahead of d1; structured branch keeps
	// column_count > 10, dropping d3
	engine.bySchema = rankedFixture(d2, d1, d3)
	intentor.action = oracle.Action{Refine: true}
	intentor.semantic = []schema.LogicalField{schema.FieldDescription}
	intentor.raw = []schema.LogicalField{schema.FieldColumnCount}
	intentor.clauses = []predicate.Clause{{Field: schema.FieldColumnCount, ClauseText: "> 10"}}

	res, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: sessionID,
		Query:     "wide tables about this topic",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.RefineTypeBoth, res.RefineType)

	session, _ := sessionRepo.Get(sessionID.String())
	assert.Equal(t, []string{"d2", "d1"}, session.Space.Current, "intersection must keep the semantic order")

	require.Len(t, res.Results, 2)
	assert.Equal(t, "d2", res.Results[0].Name)
	assert.Equal(t, "d1", res.Results[1].Name)
}

func TestRefineNoneLeavesSpaceUnchanged(t *testing.T) {
	d1 := &entity.Dataset{Name: "d1"}
	engine := &fakeEngine{bySchema: rankedFixture(d1)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{d1}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "initial")

	intentor.action = oracle.Action{Refine: true}

	res, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: sessionID,
		Query:     "hmm interesting",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.RefineTypeNone, res.RefineType)

	session, _ := sessionRepo.Get(sessionID.String())
	assert.Equal(t, []string{"d1"}, session.Space.Current)
}

func TestHandleTurnUnknownSession(t *testing.T) {
	svc, _ := newTestService(&fakeEngine{}, &fakeOracle{}, &fakeDatasetRepo{})

	_, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: uuid.New(),
		Query:     "anything",
	})

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SESSION_NOT_FOUND", appErr.Code)
}

func TestExternalServiceFailureAbortsTurn(t *testing.T) {
	d1 := &entity.Dataset{Name: "d1"}
	engine := &fakeEngine{bySchema: rankedFixture(d1)}
	intentor := &fakeOracle{}
	repo := &fakeDatasetRepo{datasets: []*entity.Dataset{d1}}
	svc, sessionRepo := newTestService(engine, intentor, repo)

	sessionID := startedSession(t, svc, engine, "initial")

	intentor.action = oracle.Action{Refine: true}
	intentor.semantic = []schema.LogicalField{schema.FieldDescription}
	engine.err = hyse.ErrExternalService

	_, err := svc.HandleTurn(context.Background(), &dto.SearchRequest{
		SessionId: sessionID,
		Query:     "more like this",
	})

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "EXTERNAL_SERVICE_FAILURE", appErr.Code)

	session, _ := sessionRepo.Get(sessionID.String())
	assert.Len(t, session.Turns, 2, "aborted turn must not be recorded")
}
