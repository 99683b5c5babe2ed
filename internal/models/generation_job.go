package models

import "time"

type GenerationJob struct {
	ID        string           `json:"id"`
	Images    []StoredImage    `json:"images"`
	Config    GenerationConfig `json:"config"`
	Status    string           `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Result    *BatchResult     `json:"result,omitempty"`
	Message   string           `json:"message,omitempty"`
	Error     string           `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
