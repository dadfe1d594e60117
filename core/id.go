package core

import "github.com/google/uuid"

// NewID returns a new unique identifier, used when a vendor response omits
// its own id.
func NewID() string { return uuid.NewString() }
