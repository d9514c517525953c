package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"dataset-discovery-be/internal/config"
	"dataset-discovery-be/internal/constant"
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/entity"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/repository/contract"
	"dataset-discovery-be/internal/repository/memory"
	"dataset-discovery-be/internal/repository/specification"
	"dataset-discovery-be/pkg/events"
	"dataset-discovery-be/pkg/hyse"
	"dataset-discovery-be/pkg/oracle"
	"dataset-discovery-be/pkg/predicate"
	"dataset-discovery-be/pkg/schema"
	"dataset-discovery-be/pkg/searchspace"
	"dataset-discovery-be/pkg/store"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RetrievalEngine is the slice of the hyse engine the orchestrator needs.
type RetrievalEngine interface {
	SearchBySchema(ctx context.Context, task string, candidateSet []string, topK int) ([]hyse.RankedDataset, error)
	SearchByQueryText(ctx context.Context, query string, candidateSet []string, topK int) ([]hyse.RankedDataset, error)
}

// EventPublisher sends turn events to the bus. Optional; publishing
// failures never fail a turn.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// SearchService orchestrates refinement turns: classify the query, route
// it through the semantic and/or structured branch, narrow the search
// space, and record the turn.
type SearchService struct {
	sessionRepo *memory.SessionRepository
	datasetRepo contract.DatasetRepository
	engine      RetrievalEngine
	intentor    oracle.Oracle
	spaces      *searchspace.Manager
	publisher   EventPublisher
	log         logger.ILogger
	cfg         *config.Config
}

func NewSearchService(
	sessionRepo *memory.SessionRepository,
	datasetRepo contract.DatasetRepository,
	engine RetrievalEngine,
	intentor oracle.Oracle,
	spaces *searchspace.Manager,
	publisher EventPublisher,
	log logger.ILogger,
	cfg *config.Config,
) *SearchService {
	return &SearchService{
		sessionRepo: sessionRepo,
		datasetRepo: datasetRepo,
		engine:      engine,
		intentor:    intentor,
		spaces:      spaces,
		publisher:   publisher,
		log:         log,
		cfg:         cfg,
	}
}

func (s *SearchService) StartSession(ctx context.Context) (*dto.StartSessionResponse, error) {
	id := uuid.New()
	session := &store.Session{ID: id.String()}
	s.sessionRepo.Save(session)

	s.log.Info("search", "Session started", map[string]interface{}{"session_id": id.String()})
	return &dto.StartSessionResponse{SessionId: id}, nil
}

// HandleTurn is the single entry point per conversation turn. The first
// turn of a session runs an unrestricted search; later turns are
// classified reset or refine and narrow (or restore) the search space.
func (s *SearchService) HandleTurn(ctx context.Context, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	sessionID := request.SessionId.String()

	unlock := s.sessionRepo.Lock(sessionID)
	defer unlock()

	session, found := s.sessionRepo.Get(sessionID)
	if !found {
		return nil, serverutils.NewAppError("SESSION_NOT_FOUND", "session not found", 404, nil)
	}

	if !session.Started() {
		return s.initialTurn(ctx, session, request)
	}
	return s.refinementTurn(ctx, session, request)
}

func (s *SearchService) initialTurn(ctx context.Context, session *store.Session, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	engineCtx, cancel := s.llmContext(ctx)
	defer cancel()

	ranked, err := s.engine.SearchBySchema(engineCtx, request.Query, nil, s.cfg.Search.InitialTopK)
	if err != nil {
		return nil, s.mapEngineError(err)
	}

	clone := session.Clone()
	clone.Turns = append(clone.Turns, store.Turn{
		Sender: constant.SenderUser,
		Text:   request.Query,
	})
	s.spaces.ApplyInitial(clone, rankedNames(ranked))
	clone.Turns = append(clone.Turns, store.Turn{
		Sender:     constant.SenderSystem,
		RefineType: constant.RefineTypeNone,
		Results:    clone.Space.Current,
	})
	clone.LastQuery = request.Query
	s.sessionRepo.Save(clone)

	s.publish(ctx, events.NewTurnCompleted(clone.ID, constant.RefineTypeNone, len(clone.Space.Current)))

	results := rankedToDTO(ranked)
	return &dto.SearchResponse{
		SessionId: request.SessionId,
		Action:    "search",
		Preview:   preview(results),
		Results:   results,
		SpaceSize: len(clone.Space.Current),
	}, nil
}

func (s *SearchService) refinementTurn(ctx context.Context, session *store.Session, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	llmCtx, cancel := s.llmContext(ctx)
	action, err := s.intentor.InferAction(llmCtx, request.Query, session.LastQuery)
	cancel()
	if err != nil {
		if errors.Is(err, oracle.ErrClassificationAmbiguous) {
			// Fatal for the turn; the session stays untouched so the next
			// turn sees the pre-turn state
			return nil, serverutils.NewAppError("CLASSIFICATION_AMBIGUOUS", "could not classify the query as reset or refine", 422, err)
		}
		return nil, serverutils.NewAppError("EXTERNAL_SERVICE_FAILURE", "intent classification failed", 502, err)
	}

	if action.Reset {
		return s.resetTurn(ctx, session, request)
	}
	return s.refineTurn(ctx, session, request)
}

func (s *SearchService) resetTurn(ctx context.Context, session *store.Session, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	clone := session.Clone()
	clone.Turns = append(clone.Turns, store.Turn{
		Sender: constant.SenderUser,
		Text:   request.Query,
	})
	s.spaces.ApplyReset(clone)
	clone.Turns = append(clone.Turns, store.Turn{
		Sender:     constant.SenderSystem,
		RefineType: constant.RefineTypeNone,
		Results:    clone.Space.Current,
	})
	clone.LastQuery = request.Query
	s.sessionRepo.Save(clone)

	s.publish(ctx, events.NewSessionReset(clone.ID, len(clone.Space.Current)))

	results, warnings := s.fetchByNames(ctx, clone.Space.Current)
	return &dto.SearchResponse{
		SessionId: request.SessionId,
		Action:    "reset",
		Preview:   preview(results),
		Results:   results,
		SpaceSize: len(clone.Space.Current),
		Warnings:  warnings,
	}, nil
}

func (s *SearchService) refineTurn(ctx context.Context, session *store.Session, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	llmCtx, cancel := s.llmContext(ctx)
	defer cancel()

	// One classification call per category; the two are independent
	semanticFields, err := s.intentor.InferMentionedFields(llmCtx, request.Query, schema.CategorySemantic)
	if err != nil {
		return nil, serverutils.NewAppError("EXTERNAL_SERVICE_FAILURE", "field mention classification failed", 502, err)
	}
	rawFields, err := s.intentor.InferMentionedFields(llmCtx, request.Query, schema.CategoryStructured)
	if err != nil {
		return nil, serverutils.NewAppError("EXTERNAL_SERVICE_FAILURE", "field mention classification failed", 502, err)
	}

	return s.dispatchRefine(ctx, session, request, semanticFields, rawFields)
}

func (s *SearchService) dispatchRefine(ctx context.Context, session *store.Session, request *dto.SearchRequest, semanticFields, rawFields []schema.LogicalField) (*dto.SearchResponse, error) {
	mentionsSemantic := len(semanticFields) > 0
	mentionsRaw := len(rawFields) > 0

	// The working set is the sole filter boundary. Keep it non-nil so an
	// emptied space stays restricted instead of widening to the corpus.
	candidateSet := session.Space.Current
	if candidateSet == nil {
		candidateSet = []string{}
	}

	var (
		refineType    string
		narrowed      []string
		semanticRank  []hyse.RankedDataset
		compileIssues []predicate.Warning
	)

	switch {
	case mentionsSemantic && mentionsRaw:
		refineType = constant.RefineTypeBoth

		var rawNames []string
		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			ranked, err := s.semanticBranch(groupCtx, session, request.Query, candidateSet)
			if err != nil {
				return err
			}
			semanticRank = ranked
			return nil
		})
		group.Go(func() error {
			names, warnings, err := s.structuredBranch(groupCtx, request.Query, rawFields, candidateSet)
			if err != nil {
				return err
			}
			rawNames = names
			compileIssues = warnings
			return nil
		})
		if err := group.Wait(); err != nil {
			return nil, err
		}

		// Intersect, keeping the semantic ranking
		allowed := make(map[string]bool, len(rawNames))
		for _, name := range rawNames {
			allowed[name] = true
		}
		var kept []hyse.RankedDataset
		for _, r := range semanticRank {
			if allowed[r.Dataset.Name] {
				kept = append(kept, r)
			}
		}
		semanticRank = kept
		narrowed = rankedNames(kept)

	case mentionsSemantic:
		refineType = constant.RefineTypeSemantic
		ranked, err := s.semanticBranch(ctx, session, request.Query, candidateSet)
		if err != nil {
			return nil, err
		}
		semanticRank = ranked
		narrowed = rankedNames(ranked)

	case mentionsRaw:
		refineType = constant.RefineTypeRaw
		names, warnings, err := s.structuredBranch(ctx, request.Query, rawFields, candidateSet)
		if err != nil {
			return nil, err
		}
		narrowed = names
		compileIssues = warnings

	default:
		// Degenerate refine: nothing to narrow on, the space is unchanged
		refineType = constant.RefineTypeNone
		narrowed = candidateSet
	}

	clone := session.Clone()
	clone.Turns = append(clone.Turns, store.Turn{
		Sender:           constant.SenderUser,
		Text:             request.Query,
		MentionsSemantic: mentionsSemantic,
		MentionsRaw:      mentionsRaw,
	})
	s.spaces.ApplyRefine(clone, narrowed)
	clone.Turns = append(clone.Turns, store.Turn{
		Sender:     constant.SenderSystem,
		RefineType: refineType,
		Results:    clone.Space.Current,
	})
	clone.LastQuery = request.Query
	s.sessionRepo.Save(clone)

	s.publish(ctx, events.NewTurnCompleted(clone.ID, refineType, len(clone.Space.Current)))

	warnings := warningStrings(compileIssues)

	var results []dto.DatasetResultDTO
	if semanticRank != nil {
		results = rankedToDTO(semanticRank)
	} else {
		var fetchWarnings []string
		results, fetchWarnings = s.fetchByNames(ctx, clone.Space.Current)
		warnings = append(warnings, fetchWarnings...)
	}

	return &dto.SearchResponse{
		SessionId:  request.SessionId,
		Action:     "refine",
		RefineType: refineType,
		Preview:    preview(results),
		Results:    results,
		SpaceSize:  len(clone.Space.Current),
		Warnings:   warnings,
	}, nil
}

// semanticBranch re-runs hypothetical schema retrieval over the combined
// semantic query history plus the current turn, restricted to the working
// set.
func (s *SearchService) semanticBranch(ctx context.Context, session *store.Session, query string, candidateSet []string) ([]hyse.RankedDataset, error) {
	task := strings.Join(append(session.SemanticQueryTexts(), query), " ")

	engineCtx, cancel := s.llmContext(ctx)
	defer cancel()

	ranked, err := s.engine.SearchBySchema(engineCtx, task, candidateSet, s.cfg.Search.RefineTopK)
	if err != nil {
		return nil, s.mapEngineError(err)
	}
	return ranked, nil
}

// structuredBranch compiles the turn's metadata filters and executes them
// against the working set. Storage failures degrade to an empty list so
// the turn still completes.
func (s *SearchService) structuredBranch(ctx context.Context, query string, rawFields []schema.LogicalField, candidateSet []string) ([]string, []predicate.Warning, error) {
	llmCtx, cancel := s.llmContext(ctx)
	clauses, err := s.intentor.InferFilterClauses(llmCtx, query, rawFields)
	cancel()
	if err != nil {
		return nil, nil, serverutils.NewAppError("EXTERNAL_SERVICE_FAILURE", "filter clause extraction failed", 502, err)
	}

	compiled, warnings := predicate.Compile(clauses, candidateSet)
	for _, w := range warnings {
		s.log.Warn("search", "Dropped filter clause", map[string]interface{}{
			"kind":   string(w.Kind),
			"field":  string(w.Field),
			"detail": w.Detail,
		})
	}

	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	datasets, err := s.datasetRepo.FindAll(storageCtx, compiled.AllSpecs()...)
	if err != nil {
		s.log.Error("search", "Structured filter query failed, degrading to empty result", map[string]interface{}{
			"error": err.Error(),
		})
		return []string{}, warnings, nil
	}

	names := make([]string, 0, len(datasets))
	for _, d := range datasets {
		names = append(names, d.Name)
	}
	return names, warnings, nil
}

// SearchByQueryText probes the stored previous-queries embedding channel
// with the literal query text. Read-only: the session's space and turn
// log are untouched.
func (s *SearchService) SearchByQueryText(ctx context.Context, request *dto.SearchRequest) (*dto.SearchResponse, error) {
	sessionID := request.SessionId.String()

	session, found := s.sessionRepo.Get(sessionID)
	if !found {
		return nil, serverutils.NewAppError("SESSION_NOT_FOUND", "session not found", 404, nil)
	}

	var candidateSet []string
	if session.Started() {
		candidateSet = session.Space.Current
		if candidateSet == nil {
			candidateSet = []string{}
		}
	}

	engineCtx, cancel := s.embedContext(ctx)
	defer cancel()

	ranked, err := s.engine.SearchByQueryText(engineCtx, request.Query, candidateSet, s.cfg.Search.RefineTopK)
	if err != nil {
		return nil, s.mapEngineError(err)
	}

	results := rankedToDTO(ranked)
	return &dto.SearchResponse{
		SessionId: request.SessionId,
		Action:    "search",
		Preview:   preview(results),
		Results:   results,
		SpaceSize: len(session.Space.Current),
	}, nil
}

// Reset restores the previous snapshot without consulting the oracle.
// The conversational path reaches the same transition when the oracle
// classifies a turn as reset; this is the caller-driven shortcut.
func (s *SearchService) Reset(ctx context.Context, sessionID uuid.UUID) (*dto.SearchResponse, error) {
	id := sessionID.String()

	unlock := s.sessionRepo.Lock(id)
	defer unlock()

	session, found := s.sessionRepo.Get(id)
	if !found {
		return nil, serverutils.NewAppError("SESSION_NOT_FOUND", "session not found", 404, nil)
	}

	clone := session.Clone()
	s.spaces.ApplyReset(clone)
	clone.Turns = append(clone.Turns, store.Turn{
		Sender:     constant.SenderSystem,
		RefineType: constant.RefineTypeNone,
		Results:    clone.Space.Current,
	})
	s.sessionRepo.Save(clone)

	s.publish(ctx, events.NewSessionReset(clone.ID, len(clone.Space.Current)))

	results, warnings := s.fetchByNames(ctx, clone.Space.Current)
	return &dto.SearchResponse{
		SessionId: sessionID,
		Action:    "reset",
		Preview:   preview(results),
		Results:   results,
		SpaceSize: len(clone.Space.Current),
		Warnings:  warnings,
	}, nil
}

func (s *SearchService) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("search", "Event publish failed", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

// fetchByNames loads dataset records for a name list, preserving the
// list's order. Storage failure degrades to an empty result with a
// warning rather than failing the turn.
func (s *SearchService) fetchByNames(ctx context.Context, names []string) ([]dto.DatasetResultDTO, []string) {
	if len(names) == 0 {
		return []dto.DatasetResultDTO{}, nil
	}

	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	datasets, err := s.datasetRepo.FindAll(storageCtx, specification.ByNames{Names: names})
	if err != nil {
		s.log.Error("search", "Result fetch failed, returning names only", map[string]interface{}{
			"error": err.Error(),
		})
		return []dto.DatasetResultDTO{}, []string{"result details unavailable"}
	}

	byName := make(map[string]*entity.Dataset, len(datasets))
	for _, d := range datasets {
		byName[d.Name] = d
	}

	results := make([]dto.DatasetResultDTO, 0, len(names))
	for _, name := range names {
		if d, ok := byName[name]; ok {
			results = append(results, datasetToDTO(d, 0))
		}
	}
	return results, nil
}

func (s *SearchService) mapEngineError(err error) error {
	if errors.Is(err, hyse.ErrExternalService) {
		return serverutils.NewAppError("EXTERNAL_SERVICE_FAILURE", "schema generation or embedding failed", 502, err)
	}
	return serverutils.NewAppError("STORAGE_QUERY_FAILURE", "similarity search failed", 500, err)
}

func (s *SearchService) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.Ai.LLMTimeoutSeconds)*time.Second)
}

func (s *SearchService) embedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.Ai.EmbedTimeoutSeconds)*time.Second)
}

func (s *SearchService) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.Ai.StorageTimeoutSeconds)*time.Second)
}

func rankedNames(ranked []hyse.RankedDataset) []string {
	names := make([]string, 0, len(ranked))
	for _, r := range ranked {
		names = append(names, r.Dataset.Name)
	}
	return names
}

func rankedToDTO(ranked []hyse.RankedDataset) []dto.DatasetResultDTO {
	results := make([]dto.DatasetResultDTO, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, datasetToDTO(r.Dataset, r.Score))
	}
	return results
}

func datasetToDTO(d *entity.Dataset, score float64) dto.DatasetResultDTO {
	return dto.DatasetResultDTO{
		Name:                  d.Name,
		Description:           d.Description,
		Similarity:            score,
		ColumnCount:           d.ColumnCount,
		Popularity:            d.Popularity,
		Tags:                  d.Tags,
		TemporalGranularity:   d.TemporalGranularity,
		GeographicGranularity: d.GeographicGranularity,
	}
}

func preview(results []dto.DatasetResultDTO) []dto.DatasetResultDTO {
	if len(results) <= constant.ResultPreviewSize {
		return results
	}
	return results[:constant.ResultPreviewSize]
}

func warningStrings(issues []predicate.Warning) []string {
	var out []string
	for _, w := range issues {
		out = append(out, w.Detail)
	}
	return out
}
