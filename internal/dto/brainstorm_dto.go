package dto

import "github.com/google/uuid"

type StartBrainstormRequest struct {
	Topic string `json:"topic" validate:"required,min=1"`
}

type StartBrainstormResponse struct {
	BrainstormId uuid.UUID `json:"brainstorm_id"`
}

type BrainstormMessageRequest struct {
	Text string `json:"text" validate:"required,min=1"`
}

type BrainstormReplyResponse struct {
	Reply     string `json:"reply,omitempty"`
	Available bool   `json:"available"`
	Active    bool   `json:"active"`
}
