package port

import "errors"

// ErrNotFound is matched by backend errors for missing resources
var ErrNotFound = errors.New("resource not found")
