package documents

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docscan-backend/internal/shared/server/middleware"
	"docscan-backend/internal/shared/server/respond"
)

const (
	maxUploadBytes = 10 << 20
	maxBatchFiles  = 10
)

// Handler exposes the document lifecycle over HTTP.
type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scan", h.scan)
	rg.POST("/documents/save", h.save)
	rg.POST("/documents/:id/rescan", h.rescan)
	rg.PUT("/documents/:id", h.edit)
	rg.DELETE("/documents/:id", h.remove)
	rg.GET("/documents/recent", h.listRecent)
	rg.GET("/documents/export", h.export)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents", h.listSaved)
}

func (h *Handler) scan(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fileHeaders = form.File["file"]
	}
	if len(fileHeaders) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "no files uploaded", nil)
		return
	}
	if len(fileHeaders) > maxBatchFiles {
		respond.Error(c, http.StatusBadRequest, "validation_error",
			fmt.Sprintf("at most %d files per scan", maxBatchFiles), nil)
		return
	}

	requestedType := strings.TrimSpace(c.PostForm("documentType"))
	if requestedType == "" {
		requestedType = strings.TrimSpace(c.PostForm("document_type"))
	}

	files := make([]IngestFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > maxUploadBytes {
			respond.Error(c, http.StatusBadRequest, "validation_error",
				fmt.Sprintf("%s exceeds the upload limit", fh.Filename), nil)
			return
		}
		data, err := readUpload(fh)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error",
				fmt.Sprintf("failed to read %s", fh.Filename), nil)
			return
		}
		files = append(files, IngestFile{FileName: fh.Filename, Data: data})
	}

	results, err := h.Service.IngestBatch(c.Request.Context(), userID, requestedType, files)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "scan failed", nil)
		return
	}

	allFailed := true
	for _, r := range results {
		if !r.Failed {
			allFailed = false
			break
		}
	}

	var payload any
	if len(results) == 1 {
		payload = toScanItemResponse(results[0])
	} else {
		items := make([]scanItemResponse, 0, len(results))
		for _, r := range results {
			items = append(items, toScanItemResponse(r))
		}
		payload = items
	}

	status := http.StatusOK
	if allFailed {
		status = http.StatusUnprocessableEntity
	}
	respond.JSON(c, status, scanResponse{Success: !allFailed, Result: payload})
}

func (h *Handler) rescan(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	result, err := h.Service.Rescan(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrSourceMissing):
			respond.Error(c, http.StatusConflict, "source_missing", "source file no longer exists", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "rescan failed", nil)
		}
		return
	}

	status := http.StatusOK
	if result.Failed {
		status = http.StatusUnprocessableEntity
	}
	respond.JSON(c, status, scanResponse{Success: !result.Failed, Result: toScanItemResponse(result)})
}

func (h *Handler) save(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Service.Save(c.Request.Context(), userID, SaveInput{
		DocumentID:   strings.TrimSpace(req.DocumentID),
		DocumentType: strings.TrimSpace(req.DocumentType),
		Content:      req.Content,
		FileName:     strings.TrimSpace(req.FileName),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to save document", nil)
		}
		return
	}
	respond.OK(c, toDocumentResponse(doc))
}

func (h *Handler) edit(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	doc, err := h.Service.Edit(c.Request.Context(), userID, documentID, EditInput{
		FileName:     strings.TrimSpace(req.FileName),
		DocumentType: strings.TrimSpace(req.DocumentType),
		Content:      req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNotEditable):
			respond.Error(c, http.StatusConflict, "not_editable", "save the document before editing", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update document", nil)
		}
		return
	}
	respond.OK(c, toDocumentResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	if err := h.Service.Delete(c.Request.Context(), userID, documentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	doc, err := h.Service.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load document", nil)
		return
	}
	respond.OK(c, toDocumentResponse(doc))
}

func (h *Handler) listRecent(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	limit := intQuery(c, "limit", 10)

	docs, err := h.Service.ListRecent(c.Request.Context(), userID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list recent scans", nil)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentResponse(doc))
	}
	respond.OK(c, resp)
}

func (h *Handler) listSaved(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter, err := savedFilterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	docs, total, err := h.Service.ListSaved(c.Request.Context(), userID, filter)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentResponse(doc))
	}
	respond.OK(c, savedListResponse{
		Documents: resp,
		Total:     total,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	})
}

func (h *Handler) export(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter, err := savedFilterFromQuery(c)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	fileName := fmt.Sprintf("documents-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := h.Service.ExportSaved(c.Request.Context(), c.Writer, userID, filter); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export documents", nil)
		return
	}
}

func savedFilterFromQuery(c *gin.Context) (SavedFilter, error) {
	filter := SavedFilter{
		DocumentType: strings.TrimSpace(c.Query("document_type")),
		Status:       strings.TrimSpace(c.Query("status")),
		NameContains: strings.TrimSpace(c.Query("q")),
		Limit:        intQuery(c, "limit", 20),
		Offset:       intQuery(c, "offset", 0),
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		t, err := parseDateParam(raw)
		if err != nil {
			return SavedFilter{}, fmt.Errorf("invalid %s date", name)
		}
		*dst = &t
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return SavedFilter{}, errors.New("to must not be before from")
	}
	return filter, nil
}

func parseDateParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}
