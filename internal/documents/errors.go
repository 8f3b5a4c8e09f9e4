package documents

import "errors"

var (
	// ErrInvalidInput indicates missing or invalid caller input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound indicates the document does not exist or belongs to another user.
	ErrNotFound = errors.New("document not found")
	// ErrNotEditable indicates an edit on a document that was never saved.
	ErrNotEditable = errors.New("document is not editable until saved")
	// ErrSourceMissing indicates a rescan target whose stored file no longer exists.
	ErrSourceMissing = errors.New("source file no longer exists")
)
