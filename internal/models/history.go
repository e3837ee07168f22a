package models

import "time"

// HistoryEntry is one stored summary.
type HistoryEntry struct {
	ID           string    `json:"id"`
	DocumentID   string    `json:"documentId"`
	DocumentName string    `json:"documentName"`
	PageCount    int       `json:"pageCount"`
	Model        string    `json:"model,omitempty"`
	PromptID     string    `json:"promptId,omitempty"`
	Summary      string    `json:"summary"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryStats aggregates the history for the sidebar counters.
type HistoryStats struct {
	Summaries  int `json:"summaries"`
	TotalPages int `json:"totalPages"`
}
