package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"docscan-backend/internal/ai"
	"docscan-backend/internal/extraction"
	"docscan-backend/internal/settings"
	"docscan-backend/internal/templates"
)

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Save(_ context.Context, userID, fileName string, r io.Reader) (string, int64, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, "", err
	}
	key := userID + "/" + fileName
	s.objects[key] = data
	return key, int64(len(data)), "", nil
}

func (s *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

type fakeExtractor struct {
	fn    func(fileData []byte) (extraction.Result, error)
	calls int
}

func (e *fakeExtractor) Extract(_ context.Context, cfg ai.Config, data []byte, _, _ string, _ []templates.Template) (extraction.Result, error) {
	e.calls++
	if cfg.APIKey == "" {
		return extraction.Result{}, extraction.ErrNoAPIKey
	}
	return e.fn(data)
}

func okExtractor() *fakeExtractor {
	return &fakeExtractor{fn: func([]byte) (extraction.Result, error) {
		return extraction.Result{
			DocumentType: "KTP",
			Content:      map[string]any{"name": "Alice"},
			Confidence:   95,
		}, nil
	}}
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(10 * time.Millisecond)
	return c.now
}

func newTestService(t *testing.T, extractor *fakeExtractor) (*Service, *MemoryRepo, *fakeStore) {
	t.Helper()
	repo := NewMemoryRepo()
	store := newFakeStore()
	clock := &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	svc := &Service{
		Repo:      repo,
		Store:     store,
		Templates: templates.NewMemoryRepo(),
		Extractor: extractor,
		Credentials: &settings.Service{
			Repo:     settings.NewMemoryRepo(),
			Fallback: ai.Config{APIKey: "test-key", Model: "test-model"},
		},
		Now: clock.Now,
	}
	svc.Sweeper = &Sweeper{Repo: repo, Store: store, Cap: 10}
	return svc, repo, store
}

func TestIngestBatchStoresCompletedDocuments(t *testing.T) {
	svc, repo, store := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "KTP", []IngestFile{
		{FileName: "front.jpg", Data: []byte("jpeg-bytes")},
		{FileName: "back.png", Data: []byte("png-bytes")},
	})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	for _, r := range results {
		if r.Failed {
			t.Fatalf("unexpected failure: %s", r.Error)
		}
		doc := r.Document
		if doc.Status != StatusCompleted {
			t.Errorf("status = %q, want %q", doc.Status, StatusCompleted)
		}
		if doc.DocumentType != "KTP" {
			t.Errorf("document type = %q, want KTP", doc.DocumentType)
		}
		if doc.ConfidenceScore == nil || *doc.ConfidenceScore != 95 {
			t.Errorf("confidence = %v, want 95", doc.ConfidenceScore)
		}
		if doc.Saved {
			t.Error("fresh scan must not be saved")
		}
		if !strings.HasSuffix(doc.ProcessingTime, "s") {
			t.Errorf("processing time = %q, want seconds suffix", doc.ProcessingTime)
		}
		stored, err := repo.GetByID(context.Background(), "user-1", doc.ID)
		if err != nil {
			t.Fatalf("document %s not persisted: %v", doc.ID, err)
		}
		if stored.Content["name"] != "Alice" {
			t.Errorf("content = %v", stored.Content)
		}
	}
	if len(store.objects) != 2 {
		t.Errorf("expected 2 stored blobs, got %d", len(store.objects))
	}
}

func TestIngestBatchRecordsFailuresWithoutAborting(t *testing.T) {
	calls := 0
	extractor := &fakeExtractor{fn: func([]byte) (extraction.Result, error) {
		calls++
		if calls == 1 {
			return extraction.Result{}, fmt.Errorf("%w: upstream 500", extraction.ErrEngine)
		}
		return extraction.Result{DocumentType: "SIM", Content: map[string]any{}, Confidence: 95}, nil
	}}
	svc, repo, _ := newTestService(t, extractor)

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "bad.jpg", Data: []byte("x")},
		{FileName: "good.jpg", Data: []byte("y")},
	})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}

	if !results[0].Failed {
		t.Fatal("first file should have failed")
	}
	failed := results[0].Document
	if failed.Status != StatusFailed {
		t.Errorf("status = %q, want %q", failed.Status, StatusFailed)
	}
	if msg, _ := failed.Content["error"].(string); !strings.Contains(msg, "upstream 500") {
		t.Errorf("error content = %v", failed.Content)
	}
	if failed.ConfidenceScore == nil || *failed.ConfidenceScore != 0 {
		t.Errorf("failed confidence = %v, want 0", failed.ConfidenceScore)
	}

	if results[1].Failed {
		t.Fatalf("second file should have succeeded: %s", results[1].Error)
	}

	// Both rows land regardless of the first failure.
	docs, err := repo.ListUnsaved(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(docs))
	}
}

func TestIngestBatchRejectsUnsupportedFileType(t *testing.T) {
	svc, _, store := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "notes.txt", Data: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if !results[0].Failed {
		t.Fatal("unsupported type must fail")
	}
	if len(store.objects) != 0 {
		t.Error("unsupported file must not be stored")
	}
}

func TestRetentionKeepsNewestUnsaved(t *testing.T) {
	svc, repo, _ := newTestService(t, okExtractor())
	svc.Sweeper.Cap = 10

	files := make([]IngestFile, 13)
	for i := range files {
		files[i] = IngestFile{
			FileName: fmt.Sprintf("scan-%02d.jpg", i),
			Data:     []byte("data"),
		}
	}
	if _, err := svc.IngestBatch(context.Background(), "user-1", "", files); err != nil {
		t.Fatal(err)
	}

	docs, err := repo.ListUnsaved(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 10 {
		t.Fatalf("expected 10 unsaved docs after sweep, got %d", len(docs))
	}
	// Newest first; the oldest three scans were evicted.
	if docs[0].FileName != "scan-12.jpg" {
		t.Errorf("newest = %q, want scan-12.jpg", docs[0].FileName)
	}
	if docs[len(docs)-1].FileName != "scan-03.jpg" {
		t.Errorf("oldest survivor = %q, want scan-03.jpg", docs[len(docs)-1].FileName)
	}
}

func TestRetentionIgnoresSavedDocuments(t *testing.T) {
	svc, repo, _ := newTestService(t, okExtractor())
	svc.Sweeper.Cap = 3

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "keep.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(context.Background(), "user-1", SaveInput{DocumentID: results[0].Document.ID}); err != nil {
		t.Fatal(err)
	}

	files := make([]IngestFile, 5)
	for i := range files {
		files[i] = IngestFile{FileName: fmt.Sprintf("s%d.jpg", i), Data: []byte("b")}
	}
	if _, err := svc.IngestBatch(context.Background(), "user-1", "", files); err != nil {
		t.Fatal(err)
	}

	saved, total, err := repo.ListSaved(context.Background(), "user-1", SavedFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(saved) != 1 || saved[0].FileName != "keep.jpg" {
		t.Fatalf("saved document evicted: total=%d docs=%v", total, saved)
	}
	unsaved, err := repo.ListUnsaved(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(unsaved) != 3 {
		t.Fatalf("expected cap of 3 unsaved docs, got %d", len(unsaved))
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	id := results[0].Document.ID

	first, err := svc.Save(context.Background(), "user-1", SaveInput{DocumentID: id})
	if err != nil {
		t.Fatal(err)
	}
	if !first.Saved {
		t.Fatal("document not saved")
	}
	second, err := svc.Save(context.Background(), "user-1", SaveInput{DocumentID: id})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if !second.Saved {
		t.Fatal("second save lost the flag")
	}
}

func TestSaveWithoutUpload(t *testing.T) {
	svc, _, _ := newTestService(t, okExtractor())

	doc, err := svc.Save(context.Background(), "user-1", SaveInput{
		DocumentType: "Invoice",
		Content:      Content{"invoice_number": "INV-7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Saved || doc.DocumentType != "Invoice" {
		t.Fatalf("unexpected doc: %+v", doc)
	}
	if doc.FilePath != "" {
		t.Error("manual save must not reference a stored file")
	}
	if doc.ConfidenceScore != nil {
		t.Error("manual save must not carry a confidence score")
	}

	_, err = svc.Save(context.Background(), "user-1", SaveInput{DocumentType: "Invoice"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without content, got %v", err)
	}
}

func TestEditRequiresSavedDocument(t *testing.T) {
	svc, _, _ := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	id := results[0].Document.ID

	_, err = svc.Edit(context.Background(), "user-1", id, EditInput{FileName: "renamed.jpg"})
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected ErrNotEditable, got %v", err)
	}

	if _, err := svc.Save(context.Background(), "user-1", SaveInput{DocumentID: id}); err != nil {
		t.Fatal(err)
	}
	doc, err := svc.Edit(context.Background(), "user-1", id, EditInput{
		FileName: "renamed.jpg",
		Content:  Content{"name": "Bob"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if doc.FileName != "renamed.jpg" || doc.Content["name"] != "Bob" {
		t.Fatalf("edit not applied: %+v", doc)
	}
}

func TestRescanMissingSource(t *testing.T) {
	svc, _, store := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	doc := results[0].Document

	delete(store.objects, doc.FilePath)
	if _, err := svc.Rescan(context.Background(), "user-1", doc.ID); !errors.Is(err, ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestRescanPreservesSavedFlag(t *testing.T) {
	svc, repo, _ := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	id := results[0].Document.ID
	if _, err := svc.Save(context.Background(), "user-1", SaveInput{DocumentID: id}); err != nil {
		t.Fatal(err)
	}

	result, err := svc.Rescan(context.Background(), "user-1", id)
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed {
		t.Fatalf("rescan failed: %s", result.Error)
	}
	doc, err := repo.GetByID(context.Background(), "user-1", id)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.Saved {
		t.Error("rescan dropped the saved flag")
	}
}

func TestDeleteRemovesRowAndBlob(t *testing.T) {
	svc, repo, store := newTestService(t, okExtractor())

	results, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if err != nil {
		t.Fatal(err)
	}
	doc := results[0].Document

	if err := svc.Delete(context.Background(), "user-1", doc.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByID(context.Background(), "user-1", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("row still present: %v", err)
	}
	if _, ok := store.objects[doc.FilePath]; ok {
		t.Error("blob still present after delete")
	}

	if err := svc.Delete(context.Background(), "user-1", doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestIngestWithoutAPIKeyRejected(t *testing.T) {
	svc, repo, store := newTestService(t, okExtractor())
	svc.Credentials = &settings.Service{Repo: settings.NewMemoryRepo()}

	_, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	// Rejected before anything was written.
	docs, err := repo.ListUnsaved(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 || len(store.objects) != 0 {
		t.Fatalf("missing key must leave no side effects, rows=%d blobs=%d", len(docs), len(store.objects))
	}
}

func TestUserCredentialsOverrideFallback(t *testing.T) {
	var seenKey string
	extractor := &fakeExtractor{fn: func([]byte) (extraction.Result, error) {
		return extraction.Result{DocumentType: "KTP", Content: map[string]any{}, Confidence: 95}, nil
	}}
	svc, _, _ := newTestService(t, extractor)

	repo := settings.NewMemoryRepo()
	repo.Put("user-1", settings.AISettings{APIKey: "user-key"})
	svc.Credentials = &settings.Service{
		Repo:     repo,
		Fallback: ai.Config{APIKey: "fallback-key", Model: "m"},
	}
	svc.Extractor = extractorFunc(func(_ context.Context, cfg ai.Config, data []byte, mimeType, requestedType string, available []templates.Template) (extraction.Result, error) {
		seenKey = cfg.APIKey
		return extraction.Result{DocumentType: "KTP", Content: map[string]any{}, Confidence: 95}, nil
	})

	if _, err := svc.IngestBatch(context.Background(), "user-1", "", []IngestFile{
		{FileName: "doc.jpg", Data: []byte("a")},
	}); err != nil {
		t.Fatal(err)
	}
	if seenKey != "user-key" {
		t.Errorf("extractor saw key %q, want user-key", seenKey)
	}
}

type extractorFunc func(ctx context.Context, cfg ai.Config, data []byte, mimeType, requestedType string, available []templates.Template) (extraction.Result, error)

func (f extractorFunc) Extract(ctx context.Context, cfg ai.Config, data []byte, mimeType, requestedType string, available []templates.Template) (extraction.Result, error) {
	return f(ctx, cfg, data, mimeType, requestedType, available)
}
