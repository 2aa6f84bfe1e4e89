// Package classifier scores job postings for inclusive language. The real
// classifier is an external model behind a short timeout; when it is slow,
// unavailable, or disabled, a deterministic rule-based fallback scores the
// posting instead so job validation is never left in an undefined state.
package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"workbridge/internal/platform/metrics"
)

// Verdict is the inclusivity assessment for one posting.
type Verdict struct {
	// Score in [0,100]; higher is more inclusive.
	Score int `json:"score"`
	// Issues lists the problems found, in a stable order.
	Issues []string `json:"issues"`
	// Source is "model", "rules", or "cache".
	Source string `json:"source"`
}

// Posting is the classifier's view of a job posting.
type Posting struct {
	Title          string
	Description    string
	Accommodations []string
}

// Classifier produces a verdict for a posting.
type Classifier interface {
	Classify(ctx context.Context, p Posting) (Verdict, error)
}

// Service wraps an optional model classifier with a bounded timeout, the
// rule-based fallback, and an optional Redis verdict cache.
type Service struct {
	model   Classifier // nil when the external classifier is disabled
	cache   *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewService(model Classifier, cache *redis.Client, ttl, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		model:   model,
		cache:   cache,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Classify never returns an error: the fallback rules are total.
func (s *Service) Classify(ctx context.Context, p Posting) Verdict {
	key := cacheKey(p)
	if v, ok := s.fromCache(ctx, key); ok {
		if s.metrics != nil {
			s.metrics.ClassifierCacheHits.Inc()
		}
		v.Source = "cache"
		return v
	}

	if s.model != nil {
		modelCtx, cancel := context.WithTimeout(ctx, s.timeout)
		v, err := s.model.Classify(modelCtx, p)
		cancel()
		if err == nil {
			v.Source = "model"
			s.toCache(ctx, key, v)
			return v
		}
		s.logger.Warn("inclusivity classifier unavailable, using rule fallback", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.ClassifierFallbacks.Inc()
	}
	v := ScoreByRules(p)
	s.toCache(ctx, key, v)
	return v
}

func cacheKey(p Posting) string {
	h := sha256.New()
	h.Write([]byte(p.Title))
	h.Write([]byte{0})
	h.Write([]byte(p.Description))
	for _, a := range p.Accommodations {
		h.Write([]byte{0})
		h.Write([]byte(a))
	}
	return "classifier:verdict:" + hex.EncodeToString(h.Sum(nil))
}

func (s *Service) fromCache(ctx context.Context, key string) (Verdict, bool) {
	if s.cache == nil {
		return Verdict{}, false
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return Verdict{}, false
	}
	var v Verdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return Verdict{}, false
	}
	return v, true
}

func (s *Service) toCache(ctx context.Context, key string, v Verdict) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Debug("classifier cache write failed", zap.Error(err))
	}
}
