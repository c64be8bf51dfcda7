package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/yourusername/handicapper/internal/metrics"
)

// CacheStats summarizes evaluation cache usage
type CacheStats struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
	Items    int     `json:"items"`
}

// EvaluationCache provides in-memory caching for race evaluations keyed by fingerprint
type EvaluationCache struct {
	cache   *cache.Cache
	ttl     time.Duration
	maxSize int
	mu      sync.Mutex
	// generation advances on every Clear; entries computed under an older
	// generation are not stored.
	generation uint64
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// NewEvaluationCache creates a new evaluation cache
func NewEvaluationCache(ttl time.Duration, maxSize int) *EvaluationCache {
	return &EvaluationCache{
		cache:   cache.New(ttl, ttl*2),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a copy of a cached evaluation
func (ec *EvaluationCache) Get(key uuid.UUID) (*Evaluation, bool) {
	if result, found := ec.cache.Get(key.String()); found {
		if eval, ok := result.(*Evaluation); ok {
			ec.hits.Add(1)
			metrics.RecordCacheHit()
			return eval.clone(), true
		}
	}

	ec.misses.Add(1)
	metrics.RecordCacheMiss()
	return nil, false
}

// Generation returns the current cache generation. Capture it before
// computing an evaluation and pass it to SetAt.
func (ec *EvaluationCache) Generation() uint64 {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.generation
}

// Set stores a copy of an evaluation at the current generation
func (ec *EvaluationCache) Set(key uuid.UUID, eval *Evaluation) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.store(key, eval)
}

// SetAt stores a copy of an evaluation computed at generation gen. It reports
// false without storing when the cache was cleared since gen was captured.
func (ec *EvaluationCache) SetAt(key uuid.UUID, eval *Evaluation, gen uint64) bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	if gen != ec.generation {
		return false
	}
	return ec.store(key, eval)
}

// store must be called with mu held
func (ec *EvaluationCache) store(key uuid.UUID, eval *Evaluation) bool {
	// Check size limit
	if ec.maxSize > 0 && ec.cache.ItemCount() >= ec.maxSize {
		// Remove expired items first
		ec.cache.DeleteExpired()
		if ec.cache.ItemCount() >= ec.maxSize {
			return false
		}
	}

	ec.cache.Set(key.String(), eval.clone(), ec.ttl)
	return true
}

// Clear flushes the entire cache and starts a new generation
func (ec *EvaluationCache) Clear() {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.generation++
	ec.cache.Flush()
}

// Stats returns cache statistics
func (ec *EvaluationCache) Stats() CacheStats {
	s := CacheStats{
		Hits:   ec.hits.Load(),
		Misses: ec.misses.Load(),
		Items:  ec.cache.ItemCount(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}
