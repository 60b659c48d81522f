package domain

import (
	"context"
	"time"
)

// ProfileRepository reads and merge-writes user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Merge(ctx context.Context, userID string, patch ProfilePatch) error
}

// ProfileWriter is the write half of ProfileRepository.
type ProfileWriter interface {
	Merge(ctx context.Context, userID string, patch ProfilePatch) error
}

// UsageCounter adjusts the stored token count in place and reports the
// stored count and limit afterwards. A positive delta that would pass the
// stored limit fails with ErrQuotaExceeded.
type UsageCounter interface {
	AddTokensUsed(ctx context.Context, userID string, delta int) (used, limit int, err error)
}

// HistoryRepository persists history entries under the owning user.
type HistoryRepository interface {
	Append(ctx context.Context, entry HistoryEntry) error
	List(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
}

// HistoryAppender is the write half of HistoryRepository.
type HistoryAppender interface {
	Append(ctx context.Context, entry HistoryEntry) error
}

// Unsubscribe ends a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// HistoryFeed pushes ordered history snapshots for one user.
type HistoryFeed interface {
	Subscribe(ctx context.Context, userID string, onChange func([]HistoryEntry), onError func(error)) (Unsubscribe, error)
}

// Generator produces text for a prompt under a system instruction.
type Generator interface {
	Generate(ctx context.Context, prompt, instruction string) (string, error)
}

// UsageResetter rolls monthly consumption over at period boundaries.
type UsageResetter interface {
	ResetUsageBefore(ctx context.Context, periodStart time.Time) (int64, error)
}
