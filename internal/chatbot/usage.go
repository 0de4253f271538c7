// Package chatbot implements the assistant pipeline: usage gating, crisis
// detection, per-user context enrichment, and the model call itself.
package chatbot

import (
	"sync"
	"time"
)

// Spend policy. Fixed per deployment; changing these requires a code change.
const (
	costPer1KTokens  = 0.002
	maxDailyRequests = 50
	maxMonthlyCost   = 20.0
)

// UsageStats reports the current counters.
type UsageStats struct {
	RequestsToday          int     `json:"requestsToday"`
	EstimatedCostToday     float64 `json:"estimatedCostToday"`
	RequestsThisMonth      int     `json:"requestsThisMonth"`
	EstimatedCostThisMonth float64 `json:"estimatedCostThisMonth"`
}

// RequestUsage reports the cost of one recorded request and the running totals.
type RequestUsage struct {
	RequestCost  float64
	DailyTotal   float64
	MonthlyTotal float64
}

// UsageTracker bounds outbound model spend with process-lifetime counters.
// Counters reset on calendar-day and calendar-month boundaries. All
// operations are atomic under one mutex.
type UsageTracker struct {
	mu  sync.Mutex
	now func() time.Time

	dailyRequests   int
	monthlyRequests int
	dailyCost       float64
	monthlyCost     float64

	lastResetDay   string
	lastResetMonth time.Month
}

// NewUsageTracker returns a tracker using the given clock; nil means time.Now.
func NewUsageTracker(now func() time.Time) *UsageTracker {
	if now == nil {
		now = time.Now
	}
	t := &UsageTracker{now: now}
	current := now()
	t.lastResetDay = current.Format("2006-01-02")
	t.lastResetMonth = current.Month()
	return t
}

// resetIfNeeded must be called with the mutex held. Calling it twice within
// the same calendar day is a no-op on the second call.
func (t *UsageTracker) resetIfNeeded() {
	current := t.now()
	day := current.Format("2006-01-02")
	month := current.Month()

	if t.lastResetDay != day {
		t.dailyRequests = 0
		t.dailyCost = 0
		t.lastResetDay = day
	}

	if t.lastResetMonth != month {
		t.monthlyRequests = 0
		t.monthlyCost = 0
		t.lastResetMonth = month
	}
}

// Stats returns the current counters.
func (t *UsageTracker) Stats() UsageStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	return UsageStats{
		RequestsToday:          t.dailyRequests,
		EstimatedCostToday:     t.dailyCost,
		RequestsThisMonth:      t.monthlyRequests,
		EstimatedCostThisMonth: t.monthlyCost,
	}
}

// CanMakeRequest reports whether another model call is allowed. The daily
// request cap is checked before the monthly cost cap; reason is empty when
// the request is allowed.
func (t *UsageTracker) CanMakeRequest() (allowed bool, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	if t.dailyRequests >= maxDailyRequests {
		return false, "Daily request limit exceeded"
	}
	if t.monthlyCost >= maxMonthlyCost {
		return false, "Monthly cost limit exceeded"
	}
	return true, ""
}

// RecordRequest converts token usage to dollars and bumps all counters.
func (t *UsageTracker) RecordRequest(tokensUsed int) RequestUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	requestCost := float64(tokensUsed) / 1000 * costPer1KTokens

	t.dailyRequests++
	t.monthlyRequests++
	t.dailyCost += requestCost
	t.monthlyCost += requestCost

	return RequestUsage{
		RequestCost:  requestCost,
		DailyTotal:   t.dailyCost,
		MonthlyTotal: t.monthlyCost,
	}
}
