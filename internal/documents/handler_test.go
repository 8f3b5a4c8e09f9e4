package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/extraction"
	"docscan-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T, extractor *fakeExtractor) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, _, _ := newTestService(t, extractor)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(middleware.Auth())
	NewHandler(svc).RegisterRoutes(api)
	return r, svc
}

func multipartScan(t *testing.T, files map[string][]byte, documentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, data := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if documentType != "" {
		if err := w.WriteField("document_type", documentType); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return body, w.FormDataContentType()
}

func doScan(t *testing.T, r *gin.Engine, files map[string][]byte, documentType string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartScan(t, files, documentType)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Guest-Id", "test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestScanSingleFileReturnsObject(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	rec := doScan(t, r, map[string][]byte{"ktp.jpg": []byte("img")}, "KTP")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatal("expected success")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(resp.Result), []byte("{")) {
		t.Fatalf("single-file result must be an object, got %s", resp.Result)
	}

	var item scanItemResponse
	if err := json.Unmarshal(resp.Result, &item); err != nil {
		t.Fatal(err)
	}
	if item.DocumentType != "KTP" || !item.Success {
		t.Fatalf("item = %+v", item)
	}
}

func TestScanMultiFileReturnsArray(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	rec := doScan(t, r, map[string][]byte{
		"a.jpg": []byte("x"),
		"b.png": []byte("y"),
	}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(resp.Result), []byte("[")) {
		t.Fatalf("multi-file result must be an array, got %s", resp.Result)
	}
}

func TestScanAllFailedReturns422(t *testing.T) {
	extractor := &fakeExtractor{fn: func([]byte) (extraction.Result, error) {
		return extraction.Result{}, fmt.Errorf("%w: model unavailable", extraction.ErrEngine)
	}}
	r, svc := newTestRouter(t, extractor)

	rec := doScan(t, r, map[string][]byte{
		"a.jpg": []byte("x"),
		"b.jpg": []byte("y"),
	}, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	// Both rows persist even though the whole batch failed.
	docs, err := svc.Repo.ListUnsaved(context.Background(), "guest:test")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 failed rows, got %d", len(docs))
	}
	for _, doc := range docs {
		if doc.Status != StatusFailed {
			t.Errorf("status = %q", doc.Status)
		}
		if msg, _ := doc.Content["error"].(string); !strings.Contains(msg, "model unavailable") {
			t.Errorf("error content = %v", doc.Content)
		}
	}
}

func TestScanRequiresFiles(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	rec := doScan(t, r, map[string][]byte{}, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestScanRequiresIdentity(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	body, contentType := multipartScan(t, map[string][]byte{"a.jpg": []byte("x")}, "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEditUnsavedReturnsConflict(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	rec := doScan(t, r, map[string][]byte{"a.jpg": []byte("x")}, "")
	var resp struct {
		Result struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	payload := strings.NewReader(`{"file_name":"renamed.jpg"}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/documents/"+resp.Result.ID, payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test")
	putRec := httptest.NewRecorder()
	r.ServeHTTP(putRec, req)

	if putRec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body = %s", putRec.Code, putRec.Body.String())
	}
}

func TestRecentListsUnsavedScans(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	doScan(t, r, map[string][]byte{"a.jpg": []byte("x")}, "")
	doScan(t, r, map[string][]byte{"b.jpg": []byte("y")}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/recent", nil)
	req.Header.Set("X-Guest-Id", "test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var docs []documentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 recent docs, got %d", len(docs))
	}
	if docs[0].FileName != "b.jpg" {
		t.Errorf("newest first, got %q", docs[0].FileName)
	}
}

func TestSaveEndpointMarksDocument(t *testing.T) {
	r, _ := newTestRouter(t, okExtractor())

	rec := doScan(t, r, map[string][]byte{"a.jpg": []byte("x")}, "")
	var resp struct {
		Result struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	payload := strings.NewReader(fmt.Sprintf(`{"document_id":%q}`, resp.Result.ID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/save", payload)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "test")
	saveRec := httptest.NewRecorder()
	r.ServeHTTP(saveRec, req)

	if saveRec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", saveRec.Code, saveRec.Body.String())
	}
	var doc documentResponse
	if err := json.Unmarshal(saveRec.Body.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if !doc.Saved {
		t.Error("document not marked saved")
	}

	// Saved documents show up in the library listing.
	listReq := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	listReq.Header.Set("X-Guest-Id", "test")
	listRec := httptest.NewRecorder()
	r.ServeHTTP(listRec, listReq)

	var list savedListResponse
	if err := json.Unmarshal(listRec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 {
		t.Fatalf("total = %d, want 1", list.Total)
	}
}
