package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchboard/internal/execution"
	"switchboard/internal/rules"
)

type fakeHistory struct {
	entries []execution.LogEntry
	err     error
}

func (f *fakeHistory) Append(ctx context.Context, entry *execution.LogEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistory) CountForRuleSince(ctx context.Context, ruleID string, since time.Time) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	count := 0
	for _, e := range f.entries {
		if e.RuleID == ruleID && e.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeHistory) ExistsForCustomerSince(ctx context.Context, ruleID, customerKey string, since time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, e := range f.entries {
		if e.RuleID == ruleID && e.CustomerKey == customerKey && e.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func newGuard(history *fakeHistory, now time.Time) *Service {
	s := NewService(history)
	s.now = func() time.Time { return now }
	return s
}

func TestCheckRate_UnderLimit(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CreatedAt: now.Add(-10 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-30 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 3}

	ok, reason, err := svc.CheckRate(context.Background(), rule)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCheckRate_ZeroCeilingMeansUnlimited(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CreatedAt: now.Add(-10 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-20 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-30 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 0}

	ok, reason, err := svc.CheckRate(context.Background(), rule)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCheckRate_AtLimitRejects(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CreatedAt: now.Add(-5 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-20 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-59 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 3}

	ok, reason, err := svc.CheckRate(context.Background(), rule)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "rate limit")
}

func TestCheckRate_TrailingWindowExcludesOldEntries(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CreatedAt: now.Add(-5 * time.Minute)},
		{RuleID: "rule-1", CreatedAt: now.Add(-20 * time.Minute)},
		// Aged out of the trailing hour.
		{RuleID: "rule-1", CreatedAt: now.Add(-61 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 3}

	ok, _, err := svc.CheckRate(context.Background(), rule)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckRate_IgnoresOtherRules(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-2", CreatedAt: now.Add(-5 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 1}

	ok, _, err := svc.CheckRate(context.Background(), rule)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckRate_HistoryError(t *testing.T) {
	svc := newGuard(&fakeHistory{err: errors.New("db down")}, time.Now())
	rule := &rules.AutomationRule{ID: "rule-1", MaxExecutionsPerHour: 1}

	_, _, err := svc.CheckRate(context.Background(), rule)
	assert.Error(t, err)
}

func TestCheckCooldown_DisabledAlwaysPasses(t *testing.T) {
	now := time.Now()
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CustomerKey: "cust-x", CreatedAt: now.Add(-time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", CooldownMinutes: 0}

	ok, _, err := svc.CheckCooldown(context.Background(), rule, "cust-x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckCooldown_WithinWindowRejects(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CustomerKey: "cust-x", CreatedAt: now.Add(-10 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", CooldownMinutes: 30}

	ok, reason, err := svc.CheckCooldown(context.Background(), rule, "cust-x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "cooldown")
}

func TestCheckCooldown_ExpiredWindowPasses(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CustomerKey: "cust-x", CreatedAt: now.Add(-31 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", CooldownMinutes: 30}

	ok, _, err := svc.CheckCooldown(context.Background(), rule, "cust-x")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckCooldown_DifferentCustomerPasses(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	history := &fakeHistory{entries: []execution.LogEntry{
		{RuleID: "rule-1", CustomerKey: "cust-x", CreatedAt: now.Add(-5 * time.Minute)},
	}}

	svc := newGuard(history, now)
	rule := &rules.AutomationRule{ID: "rule-1", CooldownMinutes: 30}

	ok, _, err := svc.CheckCooldown(context.Background(), rule, "cust-y")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckCooldown_NoCustomerKeyPasses(t *testing.T) {
	svc := newGuard(&fakeHistory{}, time.Now())
	rule := &rules.AutomationRule{ID: "rule-1", CooldownMinutes: 30}

	ok, _, err := svc.CheckCooldown(context.Background(), rule, "")
	require.NoError(t, err)
	assert.True(t, ok)
}
