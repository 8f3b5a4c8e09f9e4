package extraction

import (
	"context"
	"fmt"
	"strings"

	"docscan-backend/internal/ai"
	"docscan-backend/internal/templates"
)

// placeholderConfidence is reported when the engine's payload carries no usable
// confidence value. The engine does not actually score its output; this is a
// documented placeholder, not a measurement.
const placeholderConfidence = 95

// unknownType labels auto-detected documents the engine could not classify.
const unknownType = "unknown"

// Result is the outcome of one extraction.
type Result struct {
	DocumentType string
	Content      map[string]any
	Confidence   float64
	Warnings     []string
	// Degraded is set when the completion carried no parseable JSON and the
	// content fell back to the raw text. This is not a failure.
	Degraded bool
}

// Orchestrator drives a single extraction: prompt selection, the engine call,
// response recovery, and document type resolution.
type Orchestrator struct {
	Client ai.VisionClient
}

// Extract runs the engine against one image. The engine call is not retried;
// an engine error is returned wrapped in ErrEngine and the caller decides how
// to record it. Unparseable responses degrade to raw-text content and are
// still a successful extraction.
func (o *Orchestrator) Extract(ctx context.Context, cfg ai.Config, data []byte, mimeType, requestedType string, available []templates.Template) (Result, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{}, ErrNoAPIKey
	}

	requestedType = strings.TrimSpace(requestedType)
	if requestedType == "" {
		requestedType = AutoType
	}

	var tpl *templates.Template
	if requestedType != AutoType {
		for i := range available {
			if available[i].Name == requestedType {
				tpl = &available[i]
				break
			}
		}
	}

	var prompt string
	if tpl != nil {
		prompt = buildTypedPrompt(*tpl)
	} else {
		// Unknown requested types fall back to auto detection.
		prompt = buildAutoPrompt(available)
	}

	raw, err := o.Client.Complete(ctx, cfg, ai.Request{
		Prompt:    prompt,
		ImageData: data,
		MimeType:  mimeType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	parsed, ok := RecoverJSON(raw)
	if !ok {
		res := Result{
			Content:    map[string]any{"raw_text": raw},
			Confidence: placeholderConfidence,
			Degraded:   true,
		}
		if tpl != nil {
			res.DocumentType = tpl.Name
		} else {
			res.DocumentType = unknownType
		}
		return res, nil
	}

	res := Result{
		Content:    parsed,
		Confidence: confidenceFrom(parsed),
	}

	if tpl != nil {
		res.DocumentType = tpl.Name
		res.Warnings = templates.ValidateContent(*tpl, parsed)
		return res, nil
	}

	detected, content, resolved := ResolveAuto(parsed)
	res.Content = content
	if !resolved {
		res.DocumentType = unknownType
		return res, nil
	}
	res.DocumentType = detected
	for i := range available {
		if available[i].Name == detected {
			res.Warnings = templates.ValidateContent(available[i], content)
			break
		}
	}
	return res, nil
}

// confidenceFrom reads a confidence number from the payload if the engine
// volunteered one; otherwise the placeholder applies.
func confidenceFrom(parsed map[string]any) float64 {
	raw, ok := parsed["confidence"]
	if !ok {
		return placeholderConfidence
	}
	v, isNumber := raw.(float64)
	if !isNumber {
		return placeholderConfidence
	}
	switch {
	case v > 0 && v <= 1:
		return v * 100
	case v >= 0 && v <= 100:
		return v
	default:
		return placeholderConfidence
	}
}
