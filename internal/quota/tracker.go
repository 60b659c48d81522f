// Package quota tracks a session's monthly token consumption in memory.
package quota

import (
	"sync"

	"studio/internal/domain"
)

// Status classifies the usage badge shown to the user.
type Status string

const (
	StatusNormal    Status = "normal"
	StatusWarning   Status = "warning"
	StatusExceeded  Status = "exceeded"
	StatusUnlimited Status = "unlimited"
)

// warningPercent is the consumption above which the badge turns to a warning.
const warningPercent = 80.0

// Usage is a point-in-time view of the tracker.
type Usage struct {
	Used      int     `json:"used"`
	Limit     int     `json:"limit"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"percent"`
	Status    Status  `json:"status"`
}

// Tracker holds the (used, limit) pair for one session. It never performs I/O.
type Tracker struct {
	mu    sync.Mutex
	used  int
	limit int
}

func NewTracker(used, limit int) *Tracker {
	return &Tracker{used: used, limit: limit}
}

// Remaining returns limit - used. It is negative only while a correction is pending.
func (t *Tracker) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limit - t.used
}

// IsExceeded reports whether no quota is left.
func (t *Tracker) IsExceeded() bool {
	return t.Remaining() <= 0
}

// Reserve optimistically consumes one unit and returns the new used value.
func (t *Tracker) Reserve() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used++
	return t.used
}

// Release undoes one Reserve and returns the new used value.
func (t *Tracker) Release() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.used > 0 {
		t.used--
	}
	return t.used
}

func (t *Tracker) Used() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.used
}

func (t *Tracker) Limit() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limit
}

// Reset replaces both values, typically after the profile was re-read.
func (t *Tracker) Reset(used, limit int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.used = used
	t.limit = limit
}

// Usage derives the badge state from the current values.
func (t *Tracker) Usage() Usage {
	t.mu.Lock()
	used, limit := t.used, t.limit
	t.mu.Unlock()
	return Describe(used, limit)
}

// Describe computes a Usage for an arbitrary pair.
func Describe(used, limit int) Usage {
	u := Usage{Used: used, Limit: limit, Remaining: limit - used}
	if limit > 0 {
		u.Percent = float64(used) / float64(limit) * 100
	}
	switch {
	case limit >= domain.UnlimitedTokenLimit:
		u.Status = StatusUnlimited
	case u.Remaining <= 0:
		u.Status = StatusExceeded
	case u.Percent > warningPercent:
		u.Status = StatusWarning
	default:
		u.Status = StatusNormal
	}
	return u
}
