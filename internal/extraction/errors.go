package extraction

import "errors"

// ErrEngine indicates the AI inference call itself failed (network, auth,
// quota, invalid model). The underlying engine message is wrapped alongside.
var ErrEngine = errors.New("extraction engine failure")

// ErrNoAPIKey indicates no AI API key is configured for the caller.
var ErrNoAPIKey = errors.New("no AI API key configured")
