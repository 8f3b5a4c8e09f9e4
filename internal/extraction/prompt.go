package extraction

import (
	"fmt"
	"strings"

	"docscan-backend/internal/templates"
)

// AutoType is the sentinel requested type that asks the engine to detect the
// document category itself.
const AutoType = "auto"

// buildTypedPrompt asks for the fixed field schema of a known document type.
func buildTypedPrompt(tpl templates.Template) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an OCR engine for scanned documents. The attached image is a document of type %q", tpl.Name)
	if tpl.Description != "" {
		fmt.Fprintf(&b, " (%s)", tpl.Description)
	}
	b.WriteString(".\n\nExtract the following fields from the document:\n")
	for _, f := range tpl.Fields {
		marker := "optional"
		if f.Required {
			marker = "required"
		}
		fmt.Fprintf(&b, "- %s (%s)\n", f.Name, marker)
	}
	b.WriteString("\nRespond with exactly one JSON object whose keys are the field names above. ")
	b.WriteString("Use null for fields that are not present in the document. ")
	b.WriteString("Do not include any explanation outside the JSON object.")
	return b.String()
}

// buildAutoPrompt asks the engine to first classify the document against the
// known categories and then emit the extracted fields.
func buildAutoPrompt(available []templates.Template) string {
	var b strings.Builder
	b.WriteString("You are an OCR engine for scanned documents. Identify the type of the attached document and extract its data.\n\nKnown document types:\n")
	for _, tpl := range available {
		if tpl.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", tpl.Name, tpl.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", tpl.Name)
		}
	}
	b.WriteString("\nRespond with exactly one JSON object of the form ")
	b.WriteString(`{"detected_type": "<one of the known types, or a short label if none match>", "fields": {<extracted field names and values>}}. `)
	b.WriteString("Do not include any explanation outside the JSON object.")
	return b.String()
}
