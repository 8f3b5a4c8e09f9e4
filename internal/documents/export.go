package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Documents"

// ExportSaved writes the user's saved documents as an XLSX workbook.
// The filter narrows the export the same way it narrows listing, with
// paging disabled so the whole match set is written.
func (s *Service) ExportSaved(ctx context.Context, w io.Writer, userID string, filter SavedFilter) error {
	filter.Limit = 100
	filter.Offset = 0

	var docs []Document
	for {
		page, _, err := s.Repo.ListSaved(ctx, userID, filter)
		if err != nil {
			return err
		}
		docs = append(docs, page...)
		if len(page) < filter.Limit {
			break
		}
		filter.Offset += filter.Limit
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return err
	}

	headers := []string{"File Name", "Document Type", "Status", "Confidence", "Scanned At", "Content"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for row, doc := range docs {
		values := []any{
			doc.FileName,
			doc.DocumentType,
			doc.Status,
			confidenceCell(doc.ConfidenceScore),
			doc.ScannedAt.Format("2006-01-02 15:04:05"),
			contentCell(doc.Content),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

func confidenceCell(score *float64) any {
	if score == nil {
		return ""
	}
	return *score
}

func contentCell(content Content) string {
	if content == nil {
		return ""
	}
	b, err := json.Marshal(content)
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(content))
	}
	return string(b)
}
