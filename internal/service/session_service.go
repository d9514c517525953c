package service

import (
	"dataset-discovery-be/internal/constant"
	"dataset-discovery-be/internal/dto"
	"dataset-discovery-be/internal/pkg/logger"
	"dataset-discovery-be/internal/pkg/serverutils"
	"dataset-discovery-be/internal/repository/memory"

	"github.com/google/uuid"
)

// SessionService exposes the session log and lifecycle.
type SessionService struct {
	sessionRepo *memory.SessionRepository
	log         logger.ILogger
}

func NewSessionService(sessionRepo *memory.SessionRepository, log logger.ILogger) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, log: log}
}

func (s *SessionService) GetHistory(sessionID uuid.UUID) (*dto.GetSessionResponse, error) {
	session, found := s.sessionRepo.Get(sessionID.String())
	if !found {
		return nil, serverutils.NewAppError("SESSION_NOT_FOUND", "session not found", 404, nil)
	}

	turns := make([]dto.TurnDTO, 0, len(session.Turns))
	for _, t := range session.Turns {
		turn := dto.TurnDTO{
			Sender:      t.Sender,
			Text:        t.Text,
			ResultCount: len(t.Results),
		}
		if t.Sender == constant.SenderSystem {
			turn.RefineType = t.RefineType
		}
		turns = append(turns, turn)
	}

	return &dto.GetSessionResponse{
		SessionId: sessionID,
		Turns:     turns,
		SpaceSize: len(session.Space.Current),
		LastQuery: session.LastQuery,
	}, nil
}

func (s *SessionService) Delete(sessionID uuid.UUID) error {
	if _, found := s.sessionRepo.Get(sessionID.String()); !found {
		return serverutils.NewAppError("SESSION_NOT_FOUND", "session not found", 404, nil)
	}
	s.sessionRepo.Delete(sessionID.String())
	s.log.Info("session", "Session deleted", map[string]interface{}{"session_id": sessionID.String()})
	return nil
}
