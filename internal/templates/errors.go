package templates

import "errors"

// ErrNotFound indicates the template does not exist or is not visible to the caller.
var ErrNotFound = errors.New("template not found")
