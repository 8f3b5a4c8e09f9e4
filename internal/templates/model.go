package templates

import "time"

// Field is one expected field in a document type's schema.
type Field struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// Template describes the expected shape of one document category. A template
// with an empty UserID is global; otherwise it is scoped to its owner.
type Template struct {
	ID          string
	UserID      string
	Name        string
	Description string
	Fields      []Field
	Active      bool
	CreatedAt   time.Time
}
