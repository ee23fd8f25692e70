package utils

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var fallbackSeq atomic.Uint64

// NewID returns a time-ordered unique identifier (UUIDv7).
// IDs generated by one process are strictly increasing.
func NewID() string {
	id, err := uuid.NewV7()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp plus a process-wide counter if the random source fails.
	return strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + strconv.FormatUint(fallbackSeq.Add(1), 10)
}
