// Package summarize runs the summarization pipeline for uploaded
// documents: extract text, chunk it, index the chunks, retrieve the
// most relevant ones and generate a summary from them. Each run is an
// asynchronous job that clients poll for progress.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zainfaisal220/Sumlyzer/internal/history"
	"github.com/zainfaisal220/Sumlyzer/internal/models"
	"github.com/zainfaisal220/Sumlyzer/internal/pdf"
	"github.com/zainfaisal220/Sumlyzer/internal/rag"
	"github.com/zainfaisal220/Sumlyzer/internal/storage"
)

// ErrUnknownPrompt is returned by StartJob when the requested prompt
// profile is not registered.
var ErrUnknownPrompt = errors.New("unknown prompt profile")

// MaxJobs limits retained jobs to prevent memory exhaustion.
const MaxJobs = 50

// JobMaxAge is how long to keep finished jobs before cleanup.
const JobMaxAge = 30 * time.Minute

// JobKeepAliveWindow is how long to keep jobs that are actively being polled.
const JobKeepAliveWindow = 5 * time.Minute

// Config bounds a single pipeline run.
type Config struct {
	MaxPages     int           // pages read per document, 0 for all
	MinTextChars int           // minimum trimmed characters worth summarizing
	Timeout      time.Duration // wall clock bound per job, 0 for none
}

// DefaultConfig returns the standard pipeline bounds.
func DefaultConfig() Config {
	return Config{
		MaxPages:     0,
		MinTextChars: 50,
		Timeout:      5 * time.Minute,
	}
}

// Deps collects everything the pipeline calls into. Embedder and Vectors
// may be nil, in which case retrieval falls back to the lexical index.
type Deps struct {
	Store      storage.Store
	Chunker    rag.Chunker
	Embedder   rag.Embedder
	Vectors    rag.VectorStore
	Chunks     *rag.ChunkIndex
	Retriever  *rag.Retriever
	Summarizer rag.Summarizer
	Prompts    *rag.PromptRegistry
	History    *history.Store
	Log        *slog.Logger
}

type jobState struct {
	Job          *models.SummaryJob
	LastAccessed time.Time
}

// Manager tracks summarize jobs and runs them in the background.
type Manager struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*jobState
}

// NewManager creates a job manager.
func NewManager(cfg Config, deps Deps) *Manager {
	return &Manager{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log,
		jobs: make(map[string]*jobState),
	}
}

// StartJob begins summarizing a stored document. The returned job is a
// snapshot; poll GetJob for progress.
func (m *Manager) StartJob(documentID, promptID string) (*models.SummaryJob, error) {
	doc, err := m.deps.Store.Get(documentID)
	if err != nil {
		return nil, err
	}

	profile, ok := m.deps.Prompts.Get(promptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrompt, promptID)
	}

	m.cleanupOldJobsIfNeeded()

	job := models.NewSummaryJob(uuid.New().String(), documentID)
	job.DocumentName = doc.Name
	job.PromptID = profile.ID
	job.Model = m.deps.Summarizer.Model()

	m.mu.Lock()
	m.jobs[job.ID] = &jobState{Job: job, LastAccessed: time.Now()}
	m.mu.Unlock()

	go m.run(job.ID, doc.ID, doc.Name, profile)

	snapshot := *job
	return &snapshot, nil
}

// run executes the pipeline for one job.
func (m *Manager) run(jobID, documentID, documentName string, profile *models.PromptProfile) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("summarize job panicked", "job", jobID, "panic", r)
			m.failJob(jobID, time.Time{}, fmt.Sprintf("summarize panicked: %v", r))
		}
	}()

	start := time.Now()

	ctx := context.Background()
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	m.log.Info("summarize job started", "job", jobID, "document", documentID)

	// Stage 1: pull the page texts out of the document.
	m.setStage(jobID, models.StageExtracting, 5)

	data, err := m.deps.Store.ReadBytes(documentID)
	if err != nil {
		m.failJob(jobID, start, fmt.Sprintf("read document: %v", err))
		return
	}

	pages, err := pdf.ExtractPages(data, m.cfg.MaxPages)
	if err != nil {
		m.failJob(jobID, start, fmt.Sprintf("extract text: %v", err))
		return
	}

	totalChars := 0
	for _, page := range pages {
		totalChars += utf8.RuneCountInString(strings.TrimSpace(page))
	}
	if totalChars == 0 {
		m.failJob(jobID, start, "no extractable text in document")
		return
	}
	if totalChars < m.cfg.MinTextChars {
		m.failJob(jobID, start, "document has too little text to summarize")
		return
	}

	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.PageCount = len(pages)
	})

	// Stage 2: split pages into overlapping chunks.
	m.setStage(jobID, models.StageChunking, 20)

	chunks, err := m.deps.Chunker.ChunkPages(pages)
	if err != nil {
		m.failJob(jobID, start, fmt.Sprintf("chunk text: %v", err))
		return
	}

	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.ChunkCount = len(chunks)
	})

	// Stage 3: persist the chunk index and embed into the vector store.
	// Both halves are best effort: the lexical index covers a missing
	// vector store and vice versa, so failures degrade retrieval instead
	// of aborting the job.
	m.setStage(jobID, models.StageIndexing, 35)

	if err := m.deps.Chunks.Save(documentID, chunks); err != nil {
		m.log.Warn("chunk index save failed", "job", jobID, "document", documentID, "error", err)
	}

	m.indexVectors(ctx, jobID, documentID, chunks)

	// Stage 4: retrieve the chunks most relevant to the profile question.
	m.setStage(jobID, models.StageRetrieving, 55)

	question := profile.Question
	if question == "" {
		question = rag.DefaultQuestion
	}

	results, err := m.deps.Retriever.Retrieve(ctx, documentID, question)
	if err != nil {
		m.failJob(jobID, start, fmt.Sprintf("retrieve chunks: %v", err))
		return
	}

	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.RetrievedCount = len(results)
	})

	// Stage 5: generate the summary from the retrieved context.
	m.setStage(jobID, models.StageGenerating, 65)

	summary, err := m.deps.Summarizer.Summarize(ctx, question, rag.BuildContext(results), profile.Template)
	if err != nil {
		m.failJob(jobID, start, fmt.Sprintf("generate summary: %v", err))
		return
	}

	// Stage 6: archive the summary and mark the document indexed.
	m.setStage(jobID, models.StageSaving, 90)

	entry := &models.HistoryEntry{
		DocumentID:   documentID,
		DocumentName: documentName,
		PageCount:    len(pages),
		Model:        m.deps.Summarizer.Model(),
		PromptID:     profile.ID,
		Summary:      summary,
	}
	if err := m.deps.History.Add(entry); err != nil {
		m.log.Warn("history save failed", "job", jobID, "error", err)
	}

	if _, err := m.deps.Store.UpdateStatus(documentID, "indexed"); err != nil {
		m.log.Warn("document status update failed", "job", jobID, "error", err)
	}

	elapsed := time.Since(start).Milliseconds()
	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.Status = models.JobStatusComplete
		j.Stage = ""
		j.Progress = 100
		j.Summary = summary
		j.HistoryID = entry.ID
		j.ProcessingTimeMs = elapsed
	})

	m.log.Info("summarize job complete", "job", jobID, "document", documentID,
		"pages", len(pages), "chunks", len(chunks), "elapsedMs", elapsed)
}

// indexVectors embeds chunks into the vector store unless the document is
// already there. Runs without a vector store become lexical-only.
func (m *Manager) indexVectors(ctx context.Context, jobID, documentID string, chunks []models.Chunk) {
	if m.deps.Vectors == nil || m.deps.Embedder == nil {
		m.log.Debug("vector indexing unavailable, lexical retrieval only", "job", jobID)
		return
	}
	if m.deps.Vectors.HasDocument(documentID) {
		m.log.Debug("document already indexed", "job", jobID, "document", documentID)
		return
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := m.deps.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		m.log.Warn("embedding failed, falling back to lexical retrieval",
			"job", jobID, "document", documentID, "error", err)
		return
	}

	if err := m.deps.Vectors.AddChunks(ctx, documentID, chunks, embeddings); err != nil {
		m.log.Warn("vector indexing failed, falling back to lexical retrieval",
			"job", jobID, "document", documentID, "error", err)
	}
}

// GetJob returns a snapshot of a job by ID.
func (m *Manager) GetJob(id string) (*models.SummaryJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *state.Job
	return &snapshot, true
}

// TouchJob updates the LastAccessed timestamp for a job so active polling
// keeps it from being cleaned up.
func (m *Manager) TouchJob(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// CleanupOldJobs removes finished jobs older than maxAge, keeping jobs
// polled within JobKeepAliveWindow.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-JobKeepAliveWindow)

	for id, state := range m.jobs {
		if state.Job.Status != models.JobStatusComplete && state.Job.Status != models.JobStatusError {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.jobs, id)
			m.log.Debug("cleaned up aged job", "job", id)
		}
	}
}

// cleanupOldJobsIfNeeded evicts finished jobs once the map is at capacity.
func (m *Manager) cleanupOldJobsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.jobs) < MaxJobs {
		return
	}

	toFree := len(m.jobs) - MaxJobs + 1
	freed := 0
	for id, state := range m.jobs {
		if freed >= toFree {
			break
		}
		if state.Job.Status == models.JobStatusComplete || state.Job.Status == models.JobStatusError {
			delete(m.jobs, id)
			freed++
		}
	}
}

// setStage moves a job to a pipeline stage at the given progress.
func (m *Manager) setStage(jobID, stage string, progress float64) {
	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.Status = models.JobStatusRunning
		j.Stage = stage
		j.Progress = progress
	})
	m.log.Debug("summarize stage", "job", jobID, "stage", stage)
}

// failJob marks a job failed. A zero start leaves the elapsed time unset.
func (m *Manager) failJob(jobID string, start time.Time, reason string) {
	m.log.Warn("summarize job failed", "job", jobID, "reason", reason)
	m.updateJob(jobID, func(j *models.SummaryJob) {
		j.Status = models.JobStatusError
		j.Error = reason
		if !start.IsZero() {
			j.ProcessingTimeMs = time.Since(start).Milliseconds()
		}
	})
}

func (m *Manager) updateJob(jobID string, fn func(*models.SummaryJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.jobs[jobID]
	if !ok {
		return
	}
	fn(state.Job)
}
