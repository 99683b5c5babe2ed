package models

import "strings"

const (
	FinishReasonStop      = "STOP"
	FinishReasonMaxTokens = "MAX_TOKENS"
)

// RawResponse mirrors the generateContent response envelope.
type RawResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text string `json:"text,omitempty"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

func (r *RawResponse) FirstCandidate() *Candidate {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

func (c *Candidate) Truncated() bool {
	return strings.EqualFold(c.FinishReason, FinishReasonMaxTokens)
}

func (c *Candidate) PartTexts() []string {
	if c.Content == nil {
		return nil
	}
	texts := make([]string, 0, len(c.Content.Parts))
	for _, p := range c.Content.Parts {
		texts = append(texts, p.Text)
	}
	return texts
}
