package models

// JobStatus represents the status of a summarize job.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusError    JobStatus = "error"
)

// Summarize pipeline stages, in execution order.
const (
	StageExtracting = "extracting"
	StageChunking   = "chunking"
	StageIndexing   = "indexing"
	StageRetrieving = "retrieving"
	StageGenerating = "generating"
	StageSaving     = "saving"
)

// SummaryJob represents one run of the summarize pipeline for a document.
type SummaryJob struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"documentId"`
	DocumentName     string    `json:"documentName,omitempty"`
	PromptID         string    `json:"promptId,omitempty"`
	Status           JobStatus `json:"status"`
	Stage            string    `json:"stage,omitempty"`
	Progress         float64   `json:"progress"` // 0-100
	PageCount        int       `json:"pageCount,omitempty"`
	ChunkCount       int       `json:"chunkCount,omitempty"`
	RetrievedCount   int       `json:"retrievedCount,omitempty"`
	Model            string    `json:"model,omitempty"`
	Summary          string    `json:"summary,omitempty"`
	HistoryID        string    `json:"historyId,omitempty"`
	ProcessingTimeMs int64     `json:"processingTimeMs,omitempty"`
	Error            string    `json:"error,omitempty"`
}

// NewSummaryJob creates a new SummaryJob in pending status.
func NewSummaryJob(id, documentID string) *SummaryJob {
	return &SummaryJob{
		ID:         id,
		DocumentID: documentID,
		Status:     JobStatusPending,
		Progress:   0,
	}
}
