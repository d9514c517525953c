package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/pkg/brainstorm"
	"dataset-discovery-be/pkg/llm"

	"github.com/google/uuid"
)

// replyPollWait bounds how long a poll request holds the connection open.
const replyPollWait = 2 * time.Second

// BrainstormService keeps the live brainstorming workers. Workers remove
// themselves after their idle timeout; the map entry goes with them.
type BrainstormService struct {
	llmProvider llm.LLMProvider
	log         logger.ILogger

	mu      sync.Mutex
	workers map[uuid.UUID]*brainstorm.Worker
}

func NewBrainstormService(llmProvider llm.LLMProvider, log logger.ILogger) *BrainstormService {
	return &BrainstormService{
		llmProvider: llmProvider,
		log:         log,
		workers:     make(map[uuid.UUID]*brainstorm.Worker),
	}
}

func (s *BrainstormService) Start(ctx context.Context, request *dto.StartBrainstormRequest) (*dto.StartBrainstormResponse, error) {
	id := uuid.New()
	worker := brainstorm.NewWorker(s.llmProvider, s.log, brainstorm.DefaultIdleTimeout)

	s.mu.Lock()
	s.workers[id] = worker
	s.mu.Unlock()

	// The worker outlives the request; detach it from the request context
	worker.Start(context.Background(), request.Topic)

	go func() {
		<-worker.Done()
		s.mu.Lock()
		delete(s.workers, id)
		s.mu.Unlock()
	}()

	s.log.Info("brainstorm", "Worker started", map[string]interface{}{"brainstorm_id": id.String()})
	return &dto.StartBrainstormResponse{BrainstormId: id}, nil
}

func (s *BrainstormService) Submit(id uuid.UUID, request *dto.BrainstormMessageRequest) error {
	worker, found := s.worker(id)
	if !found {
		return serverutils.NewAppError("BRAINSTORM_NOT_FOUND", "brainstorm worker not found or timed out", 404, nil)
	}

	if err := worker.Submit(request.Text); err != nil {
		if errors.Is(err, brainstorm.ErrWorkerStopped) {
			return serverutils.NewAppError("BRAINSTORM_NOT_FOUND", "brainstorm worker not found or timed out", 404, err)
		}
		return serverutils.NewAppError("BRAINSTORM_BUSY", "brainstorm worker cannot accept input right now", 429, err)
	}
	return nil
}

func (s *BrainstormService) Poll(id uuid.UUID) (*dto.BrainstormReplyResponse, error) {
	worker, found := s.worker(id)
	if !found {
		return &dto.BrainstormReplyResponse{Available: false, Active: false}, nil
	}

	reply, ok := worker.Poll(replyPollWait)

	active := true
	select {
	case <-worker.Done():
		active = false
	default:
	}

	return &dto.BrainstormReplyResponse{Reply: reply, Available: ok, Active: active}, nil
}

func (s *BrainstormService) worker(id uuid.UUID) (*brainstorm.Worker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, found := s.workers[id]
	return w, found
}
