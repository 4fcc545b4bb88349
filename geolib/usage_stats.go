package geolib

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// UsageStats collects a usage statistics of the backend: how many times
// it has found something, how many times lookups have failed and how
// many failures were replaced with a default location.
type UsageStats struct {
	Name string

	mutex          sync.Mutex
	lastUsed       time.Time
	successCount   uint64
	failureCount   uint64
	recoveredCount uint64
}

func (u *UsageStats) Used(err error, recovered bool) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	switch {
	case err == nil:
		u.successCount++
	case recovered:
		u.recoveredCount++
	default:
		u.failureCount++
	}
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	var lastUsedTime int64

	u.mutex.Lock()

	if !u.lastUsed.IsZero() {
		lastUsedTime = u.lastUsed.Unix()
	}

	rawStruct := struct {
		Name           string `json:"name"`
		LastUsed       int64  `json:"last_used"`
		SuccessCount   uint64 `json:"success_count"`
		FailureCount   uint64 `json:"failure_count"`
		RecoveredCount uint64 `json:"recovered_count"`
	}{
		Name:           u.Name,
		LastUsed:       lastUsedTime,
		SuccessCount:   u.successCount,
		FailureCount:   u.failureCount,
		RecoveredCount: u.recoveredCount,
	}

	u.mutex.Unlock()

	return json.Marshal(&rawStruct)
}

type statsBackend struct {
	Backend

	stats *UsageStats
}

func (s statsBackend) Lookup(ctx context.Context, ip string) (Location, error) {
	location, err := s.Backend.Lookup(ctx, ip)

	s.stats.Used(err, err != nil && s.Backend.Recovers(err))

	return location, err
}

// NewStatsBackend wraps a backend to track its usage in stats.
func NewStatsBackend(backend Backend, stats *UsageStats) Backend {
	if stats.Name == "" {
		stats.Name = backend.Name()
	}

	return statsBackend{
		Backend: backend,
		stats:   stats,
	}
}
