package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"docscan-backend/internal/ai"
	"docscan-backend/internal/extraction"
	"docscan-backend/internal/filemeta"
	"docscan-backend/internal/settings"
	"docscan-backend/internal/shared/metrics"
	"docscan-backend/internal/shared/storage/object"
	"docscan-backend/internal/shared/telemetry"
	"docscan-backend/internal/shared/util"
	"docscan-backend/internal/templates"
)

// Extractor is the slice of the extraction orchestrator the service needs.
type Extractor interface {
	Extract(ctx context.Context, cfg ai.Config, data []byte, mimeType, requestedType string, available []templates.Template) (extraction.Result, error)
}

// Service owns the document lifecycle: ingestion, rescans, saving,
// editing, deletion, and listing.
type Service struct {
	Repo        Repo
	Store       object.ObjectStore
	Templates   templates.Repo
	Extractor   Extractor
	Credentials *settings.Service
	Sweeper     *Sweeper

	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

// IngestFile is one uploaded file in a scan batch.
type IngestFile struct {
	FileName string
	Data     []byte
}

// IngestResult pairs a stored document with its per-file outcome.
type IngestResult struct {
	Document Document
	Failed   bool
	Error    string
	Warnings []string
}

// SaveInput marks a document as saved. When DocumentID is empty a new
// saved document is created from the provided fields.
type SaveInput struct {
	DocumentID   string
	DocumentType string
	Content      Content
	FileName     string
}

// EditInput carries the editable fields of a saved document.
type EditInput struct {
	FileName     string
	DocumentType string
	Content      Content
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IngestBatch processes every file in order, persisting one document
// per file. Per-file extraction failures are recorded as failed rows
// and never abort the batch. Retention runs once after the whole batch.
func (s *Service) IngestBatch(ctx context.Context, userID, requestedType string, files []IngestFile) ([]IngestResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files uploaded", ErrInvalidInput)
	}

	cfg, err := s.Credentials.ResolveAIConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Reject before any blob is written; a missing key would fail every file.
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: no AI API key configured", ErrInvalidInput)
	}
	available, err := s.Templates.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := make([]IngestResult, 0, len(files))
	for _, f := range files {
		results = append(results, s.ingestOne(ctx, userID, requestedType, cfg, available, f))
	}

	if s.Sweeper != nil {
		if _, err := s.Sweeper.Sweep(ctx, userID); err != nil {
			telemetry.Warn("retention sweep failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	return results, nil
}

func (s *Service) ingestOne(ctx context.Context, userID, requestedType string, cfg ai.Config, available []templates.Template, f IngestFile) IngestResult {
	metrics.IncScanStarted()
	started := s.now()

	doc := Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		FileName:  f.FileName,
		ScannedAt: started,
		CreatedAt: started,
	}

	fileName, err := util.SanitizeFileName(f.FileName)
	if err != nil {
		return s.recordFailure(ctx, doc, started, "invalid file name")
	}
	doc.FileName = fileName

	mimeType, allowed := extraction.MimeTypeForFile(fileName)
	if !allowed {
		return s.recordFailure(ctx, doc, started, fmt.Sprintf("unsupported file type: %s", fileName))
	}
	if len(f.Data) == 0 {
		return s.recordFailure(ctx, doc, started, "empty file")
	}

	key, size, storedMime, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(f.Data))
	if err != nil {
		return s.recordFailure(ctx, doc, started, fmt.Sprintf("store file: %v", err))
	}
	doc.FilePath = key
	doc.FileSize = util.FormatByteSize(size)
	if storedMime != "" {
		mimeType = storedMime
	}
	doc.Resolution = filemeta.Resolution(f.Data, mimeType)

	res, err := s.Extractor.Extract(ctx, cfg, f.Data, mimeType, requestedType, available)
	if err != nil {
		return s.recordFailure(ctx, doc, started, extractionErrorMessage(err))
	}

	confidence := res.Confidence
	doc.DocumentType = res.DocumentType
	doc.Status = StatusCompleted
	doc.Content = res.Content
	doc.ConfidenceScore = &confidence
	doc.ProcessingTime = s.elapsed(started)

	if err := s.Repo.Create(ctx, doc); err != nil {
		metrics.IncScanFailed()
		return IngestResult{Document: doc, Failed: true, Error: fmt.Sprintf("persist document: %v", err)}
	}

	metrics.IncScanCompleted()
	metrics.ObserveScanDurationMs(float64(s.now().Sub(started).Milliseconds()))
	telemetry.Info("scan completed", map[string]any{
		"documentId":   doc.ID,
		"documentType": doc.DocumentType,
		"degraded":     res.Degraded,
	})
	return IngestResult{Document: doc, Warnings: res.Warnings}
}

// recordFailure persists a failed row so the client sees which file
// broke and why. Failed rows count toward retention like any other
// unsaved document.
func (s *Service) recordFailure(ctx context.Context, doc Document, started time.Time, msg string) IngestResult {
	metrics.IncScanFailed()

	zero := float64(0)
	doc.Status = StatusFailed
	doc.DocumentType = "unknown"
	doc.Content = Content{"error": msg}
	doc.ConfidenceScore = &zero
	doc.ProcessingTime = s.elapsed(started)

	if err := s.Repo.Create(ctx, doc); err != nil {
		telemetry.Error("persist failed scan", map[string]any{
			"documentId": doc.ID,
			"error":      err.Error(),
		})
	}
	telemetry.Warn("scan failed", map[string]any{
		"documentId": doc.ID,
		"fileName":   doc.FileName,
		"reason":     msg,
	})
	return IngestResult{Document: doc, Failed: true, Error: msg}
}

// Rescan re-runs extraction against a document's stored file. The
// saved flag is preserved.
func (s *Service) Rescan(ctx context.Context, userID, documentID string) (IngestResult, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return IngestResult{}, err
	}
	if doc.FilePath == "" {
		return IngestResult{}, ErrSourceMissing
	}
	if ok, err := s.Store.Exists(ctx, doc.FilePath); err != nil {
		return IngestResult{}, err
	} else if !ok {
		return IngestResult{}, ErrSourceMissing
	}

	rc, err := s.Store.Open(ctx, doc.FilePath)
	if err != nil {
		return IngestResult{}, ErrSourceMissing
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read stored file: %w", err)
	}

	cfg, err := s.Credentials.ResolveAIConfig(ctx, userID)
	if err != nil {
		return IngestResult{}, err
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return IngestResult{}, fmt.Errorf("%w: no AI API key configured", ErrInvalidInput)
	}
	available, err := s.Templates.ListActive(ctx, userID)
	if err != nil {
		return IngestResult{}, err
	}

	metrics.IncScanStarted()
	started := s.now()
	mimeType, _ := extraction.MimeTypeForFile(doc.FileName)

	res, err := s.Extractor.Extract(ctx, cfg, data, mimeType, extraction.AutoType, available)
	if err != nil {
		metrics.IncScanFailed()
		zero := float64(0)
		doc.Status = StatusFailed
		doc.Content = Content{"error": extractionErrorMessage(err)}
		doc.ConfidenceScore = &zero
		doc.ProcessingTime = s.elapsed(started)
		doc.ScannedAt = started
		if updateErr := s.Repo.Update(ctx, doc); updateErr != nil {
			return IngestResult{}, updateErr
		}
		return IngestResult{Document: doc, Failed: true, Error: extractionErrorMessage(err)}, nil
	}

	confidence := res.Confidence
	doc.DocumentType = res.DocumentType
	doc.Status = StatusCompleted
	doc.Content = res.Content
	doc.ConfidenceScore = &confidence
	doc.ProcessingTime = s.elapsed(started)
	doc.ScannedAt = started

	if err := s.Repo.Update(ctx, doc); err != nil {
		return IngestResult{}, err
	}
	metrics.IncScanCompleted()
	metrics.ObserveScanDurationMs(float64(s.now().Sub(started).Milliseconds()))
	return IngestResult{Document: doc, Warnings: res.Warnings}, nil
}

// Save marks a document as saved, exempting it from retention. Saving
// an already saved document is a no-op. With no DocumentID a saved
// document is created directly from the given fields.
func (s *Service) Save(ctx context.Context, userID string, in SaveInput) (Document, error) {
	if in.DocumentID == "" {
		return s.saveNew(ctx, userID, in)
	}

	doc, err := s.Repo.GetByID(ctx, userID, in.DocumentID)
	if err != nil {
		return Document{}, err
	}

	if in.FileName != "" {
		sanitized, err := util.SanitizeFileName(in.FileName)
		if err != nil {
			return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
		}
		doc.FileName = sanitized
	}
	if in.DocumentType != "" {
		doc.DocumentType = in.DocumentType
	}
	if in.Content != nil {
		doc.Content = in.Content
	}
	if doc.Saved && in.FileName == "" && in.DocumentType == "" && in.Content == nil {
		return doc, nil
	}
	doc.Saved = true

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *Service) saveNew(ctx context.Context, userID string, in SaveInput) (Document, error) {
	if in.DocumentType == "" || in.Content == nil {
		return Document{}, fmt.Errorf("%w: document_type and content are required", ErrInvalidInput)
	}
	now := s.now()
	fileName := in.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("%s-%s", in.DocumentType, now.Format("20060102-150405"))
	}
	sanitized, err := util.SanitizeFileName(fileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
	}
	doc := Document{
		ID:           uuid.NewString(),
		UserID:       userID,
		FileName:     sanitized,
		DocumentType: in.DocumentType,
		Status:       StatusCompleted,
		Saved:        true,
		Content:      in.Content,
		ScannedAt:    now,
		CreatedAt:    now,
	}
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Edit updates the mutable fields of a saved document. Unsaved
// documents are read-only between scan and save.
func (s *Service) Edit(ctx context.Context, userID, documentID string, in EditInput) (Document, error) {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	if !doc.Saved {
		return Document{}, ErrNotEditable
	}

	if in.FileName != "" {
		sanitized, err := util.SanitizeFileName(in.FileName)
		if err != nil {
			return Document{}, fmt.Errorf("%w: invalid file name", ErrInvalidInput)
		}
		doc.FileName = sanitized
	}
	if in.DocumentType != "" {
		doc.DocumentType = in.DocumentType
	}
	if in.Content != nil {
		doc.Content = in.Content
	}

	if err := s.Repo.Update(ctx, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document and its stored file. A missing blob is not
// an error; the row is authoritative.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, userID, documentID); err != nil {
		return err
	}
	if doc.FilePath != "" {
		if err := s.Store.Delete(ctx, doc.FilePath); err != nil {
			telemetry.Warn("blob delete failed", map[string]any{
				"documentId": documentID,
				"error":      err.Error(),
			})
		}
	}
	return nil
}

// ListRecent returns the user's unsaved scans, newest first.
func (s *Service) ListRecent(ctx context.Context, userID string, limit int) ([]Document, error) {
	return s.Repo.ListRecent(ctx, userID, limit)
}

// ListSaved returns a filtered page of saved documents plus the total count.
func (s *Service) ListSaved(ctx context.Context, userID string, filter SavedFilter) ([]Document, int, error) {
	return s.Repo.ListSaved(ctx, userID, filter)
}

// Get returns one document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, documentID)
}

func (s *Service) elapsed(started time.Time) string {
	return fmt.Sprintf("%.1fs", s.now().Sub(started).Seconds())
}

func extractionErrorMessage(err error) string {
	switch {
	case errors.Is(err, extraction.ErrNoAPIKey):
		return "no AI API key configured"
	case errors.Is(err, extraction.ErrEngine):
		msg := err.Error()
		if idx := strings.Index(msg, ": "); idx >= 0 {
			msg = msg[idx+2:]
		}
		return "extraction engine error: " + msg
	default:
		return err.Error()
	}
}
