package logging

import (
	"log/slog"
	"sync"
)

// ErrorSampler reduces log noise when the same failure repeats, e.g. an unreachable CMS.
// The first occurrence of a key is logged, then every Nth one.
type ErrorSampler struct {
	mu       sync.Mutex
	counts   map[string]int
	interval int
	logger   *slog.Logger
}

// NewErrorSampler creates a sampler logging every interval-th occurrence.
// A nil logger means slog.Default().
func NewErrorSampler(interval int, logger *slog.Logger) *ErrorSampler {
	if interval < 1 {
		interval = 10
	}
	return &ErrorSampler{
		counts:   make(map[string]int),
		interval: interval,
		logger:   logger,
	}
}

// ShouldLog records an occurrence of errorKey and reports whether it should be logged.
func (s *ErrorSampler) ShouldLog(errorKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[errorKey]++
	count := s.counts[errorKey]
	return count == 1 || count%s.interval == 0
}

// Warn logs msg at warn level when the sampler lets errorKey through.
// The running occurrence count is attached as "occurrences".
func (s *ErrorSampler) Warn(errorKey, msg string, args ...any) {
	if !s.ShouldLog(errorKey) {
		return
	}
	logger := s.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn(msg, append(args, "occurrences", s.Count(errorKey))...)
}

// Count returns how many times errorKey was recorded since the last reset.
func (s *ErrorSampler) Count(errorKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[errorKey]
}

// Reset forgets errorKey, typically after the operation succeeds again.
func (s *ErrorSampler) Reset(errorKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, errorKey)
}
