package dto

import "github.com/google/uuid"

type TurnDTO struct {
	Sender      string `json:"sender"`
	Text        string `json:"text"`
	RefineType  string `json:"refine_type,omitempty"`
	ResultCount int    `json:"result_count"`
}

type GetSessionResponse struct {
	SessionId uuid.UUID `json:"session_id"`
	Turns     []TurnDTO `json:"turns"`
	SpaceSize int       `json:"space_size"`
	LastQuery string    `json:"last_query,omitempty"`
}

type DeleteSessionRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
}
