package guard

import (
	"context"
	"fmt"
	"time"

	"switchboard/internal/constants"
	"switchboard/internal/execution"
	"switchboard/internal/rules"
	"switchboard/pkg/metrics"
)

// Service runs the pre-dispatch eligibility checks. Both checks are
// advisory reads against the execution history with no locking: two
// near-simultaneous requests for the same rule or customer can both pass
// before either log entry lands. That makes this a soft ceiling, not an
// admission-control guarantee.
type Service struct {
	history execution.Repository
	now     func() time.Time
}

func NewService(history execution.Repository) *Service {
	return &Service{
		history: history,
		now:     time.Now,
	}
}

// CheckRate passes while the trailing-hour execution count for the rule is
// below its hourly ceiling. The window is a trailing interval, not a
// calendar bucket, so bucket-boundary bursts cannot double the ceiling.
func (s *Service) CheckRate(ctx context.Context, rule *rules.AutomationRule) (bool, string, error) {
	// Zero or negative means no ceiling; the schema defaults the column to 0.
	if rule.MaxExecutionsPerHour <= 0 {
		return true, "", nil
	}

	since := s.now().Add(-constants.RateLimitWindow)
	count, err := s.history.CountForRuleSince(ctx, rule.ID, since)
	if err != nil {
		return false, "", fmt.Errorf("rate limit check failed: %w", err)
	}

	if count >= rule.MaxExecutionsPerHour {
		metrics.GuardRejectionsTotal.WithLabelValues("rate_limit").Inc()
		return false, fmt.Sprintf("rate limit reached (%d executions in the last hour, max %d)",
			count, rule.MaxExecutionsPerHour), nil
	}

	return true, "", nil
}

// CheckCooldown passes when the rule has no cooldown, when the event has
// no customer key to track, or when no execution for this rule+customer
// exists within the trailing cooldown window.
func (s *Service) CheckCooldown(ctx context.Context, rule *rules.AutomationRule, customerKey string) (bool, string, error) {
	if rule.CooldownMinutes <= 0 {
		return true, "", nil
	}
	if customerKey == "" {
		return true, "", nil
	}

	since := s.now().Add(-time.Duration(rule.CooldownMinutes) * time.Minute)
	exists, err := s.history.ExistsForCustomerSince(ctx, rule.ID, customerKey, since)
	if err != nil {
		return false, "", fmt.Errorf("cooldown check failed: %w", err)
	}

	if exists {
		metrics.GuardRejectionsTotal.WithLabelValues("cooldown").Inc()
		return false, fmt.Sprintf("customer in cooldown (%d minutes)", rule.CooldownMinutes), nil
	}

	return true, "", nil
}
