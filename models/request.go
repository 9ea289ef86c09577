package models

type AskRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"sessionID,omitempty"`
}
