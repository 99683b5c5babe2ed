package models

import "time"

const (
	RunModeBatch  = "batch"
	RunModeSingle = "single"
	RunModeRelay  = "relay"

	RunStatusSuccess = "success"
	RunStatusFailed  = "failed"
	RunStatusCached  = "cached"
)

// GenerationRun is one recorded generation attempt.
type GenerationRun struct {
	ID           uint   `gorm:"primaryKey"`
	Mode         string `gorm:"size:16;index"`
	Attempt      int
	ImageNames   string `gorm:"size:1024"`
	ImageCount   int
	Model        string `gorm:"size:64"`
	Status       string `gorm:"size:16;index"`
	ErrorKind    string `gorm:"size:32;index"`
	ErrorMsg     string `gorm:"size:1024"`
	FinishReason string `gorm:"size:32"`
	InputTokens  int
	OutputTokens int
	DurationMs   int64
	CreatedAt    time.Time `gorm:"index"`
}

func (GenerationRun) TableName() string {
	return "generation_runs"
}
