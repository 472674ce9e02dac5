package eventmodels

import "fmt"

var (
	ErrConnection   = fmt.Errorf("connection error")
	ErrLookup       = fmt.Errorf("lookup error")
	ErrSubmission   = fmt.Errorf("submission error")
	ErrValidation   = fmt.Errorf("validation error")
	ErrUnknownTrade = fmt.Errorf("unknown trade reference: %w", ErrLookup)
	ErrNotLoggedIn  = fmt.Errorf("not logged in: %w", ErrConnection)
)
