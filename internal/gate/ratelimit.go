package gate

import (
	"sync"
	"time"

	"github.com/bioduds/askee/internal/policy"
)

// rateLimiter enforces per-(agent_id, model_id) minute/hour/day ceilings
// (SPEC_FULL §E addition) using a fixed-window counter table — grounded on
// the teacher's internal/core/txq escalating per-account limiter, adapted
// from per-account transaction sequence numbers to per-agent/per-model
// request counts.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*counterSet
	now     func() time.Time
}

type counterSet struct {
	minuteStart time.Time
	minuteCount int
	hourStart   time.Time
	hourCount   int
	dayStart    time.Time
	dayCount    int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{windows: make(map[string]*counterSet), now: time.Now}
}

// Allow reports whether one more request for (agentID, modelID) fits under
// limit, and if so records it. Each window resets once its duration has
// elapsed since it last started.
func (r *rateLimiter) Allow(agentID, modelID string, limit policy.RateLimit) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := agentID + "|" + modelID
	cs, ok := r.windows[key]
	if !ok {
		cs = &counterSet{}
		r.windows[key] = cs
	}

	now := r.now()

	if limit.PerMinute > 0 {
		if now.Sub(cs.minuteStart) >= time.Minute {
			cs.minuteStart = now
			cs.minuteCount = 0
		}
		if cs.minuteCount >= limit.PerMinute {
			return false
		}
	}
	if limit.PerHour > 0 {
		if now.Sub(cs.hourStart) >= time.Hour {
			cs.hourStart = now
			cs.hourCount = 0
		}
		if cs.hourCount >= limit.PerHour {
			return false
		}
	}
	if limit.PerDay > 0 {
		if now.Sub(cs.dayStart) >= 24*time.Hour {
			cs.dayStart = now
			cs.dayCount = 0
		}
		if cs.dayCount >= limit.PerDay {
			return false
		}
	}

	cs.minuteCount++
	cs.hourCount++
	cs.dayCount++
	return true
}
