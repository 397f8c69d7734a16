package utils

import "time"

// RepoTimeout bounds every single repository round trip.
const RepoTimeout = 5 * time.Second

// MaxWriteRetries bounds optimistic-concurrency retries on versioned documents.
const MaxWriteRetries = 3
