package documents

import "time"

type documentResponse struct {
	ID             string    `json:"id"`
	FileName       string    `json:"file_name"`
	FileSize       string    `json:"file_size,omitempty"`
	Resolution     string    `json:"resolution,omitempty"`
	DocumentType   string    `json:"document_type"`
	Status         string    `json:"status"`
	Saved          bool      `json:"saved"`
	Content        Content   `json:"content"`
	Confidence     *float64  `json:"confidence_score,omitempty"`
	ProcessingTime string    `json:"processing_time,omitempty"`
	ScannedAt      time.Time `json:"scanned_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type scanItemResponse struct {
	documentResponse
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

type scanResponse struct {
	Success bool `json:"success"`
	// Result is a single object for one uploaded file and an array
	// for a multi-file batch.
	Result any `json:"result"`
}

type savedListResponse struct {
	Documents []documentResponse `json:"documents"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type saveRequest struct {
	DocumentID   string  `json:"document_id"`
	DocumentType string  `json:"document_type"`
	Content      Content `json:"content"`
	FileName     string  `json:"file_name"`
}

type editRequest struct {
	FileName     string  `json:"file_name"`
	DocumentType string  `json:"document_type"`
	Content      Content `json:"content"`
}

func toDocumentResponse(doc Document) documentResponse {
	return documentResponse{
		ID:             doc.ID,
		FileName:       doc.FileName,
		FileSize:       doc.FileSize,
		Resolution:     doc.Resolution,
		DocumentType:   doc.DocumentType,
		Status:         doc.Status,
		Saved:          doc.Saved,
		Content:        doc.Content,
		Confidence:     doc.ConfidenceScore,
		ProcessingTime: doc.ProcessingTime,
		ScannedAt:      doc.ScannedAt,
		CreatedAt:      doc.CreatedAt,
	}
}

func toScanItemResponse(r IngestResult) scanItemResponse {
	return scanItemResponse{
		documentResponse: toDocumentResponse(r.Document),
		Success:          !r.Failed,
		Error:            r.Error,
		Warnings:         r.Warnings,
	}
}
