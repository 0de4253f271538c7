package chatbot

import (
	"fmt"
	"math"
	"strings"

	"github.com/ahmedazmi005/Full-Stack-AI-Mental-Health-App/internal/user"
)

// UserContext summarizes a user's recent tracking data for prompt enrichment.
type UserContext struct {
	HasContext     bool                `json:"hasContext"`
	AverageMood    float64             `json:"averageMood,omitempty"`
	MoodTrend      string              `json:"moodTrend,omitempty"`
	LatestCheckin  *user.WeeklyCheckin `json:"latestCheckin,omitempty"`
	MoodEntryCount int                 `json:"moodEntryCount"`
	CheckinCount   int                 `json:"checkinCount"`
}

// BuildUserContext derives a context summary from the user's mental health
// data. Returns a zero-value context when there is nothing to summarize.
func BuildUserContext(u *user.User) UserContext {
	var ctx UserContext
	if u == nil || u.Profile.MentalHealthData == nil {
		return ctx
	}

	data := u.Profile.MentalHealthData
	ctx.MoodEntryCount = len(data.MoodTracking)
	ctx.CheckinCount = len(data.WeeklyCheckins)

	if len(data.MoodTracking) > 0 {
		ctx.HasContext = true
		ctx.AverageMood = averageMood(data.MoodTracking, 3)
		ctx.MoodTrend = moodTrend(data.MoodTracking)
	}

	if len(data.WeeklyCheckins) > 0 {
		ctx.HasContext = true
		latest := data.WeeklyCheckins[len(data.WeeklyCheckins)-1]
		ctx.LatestCheckin = &latest
	}

	return ctx
}

// averageMood averages the n most recent entries, rounded to one decimal.
func averageMood(entries []user.MoodEntry, n int) float64 {
	if len(entries) < n {
		n = len(entries)
	}
	recent := entries[len(entries)-n:]

	var sum int
	for _, e := range recent {
		sum += e.Mood
	}
	return math.Round(float64(sum)/float64(n)*10) / 10
}

// moodTrend compares the two most recent entries. Fewer than two entries,
// or equal moods, reads as stable.
func moodTrend(entries []user.MoodEntry) string {
	if len(entries) < 2 {
		return "stable"
	}
	last := entries[len(entries)-1].Mood
	prev := entries[len(entries)-2].Mood
	switch {
	case last > prev:
		return "improving"
	case last < prev:
		return "declining"
	default:
		return "stable"
	}
}

// PromptBlock renders the context as a system prompt addendum. Empty when
// there is no context.
func (c UserContext) PromptBlock() string {
	if !c.HasContext {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\nContext about this user from their self-tracking data:\n")
	if c.MoodEntryCount > 0 {
		fmt.Fprintf(&b, "- Recent average mood: %.1f/10 (trend: %s, %d entries logged)\n",
			c.AverageMood, c.MoodTrend, c.MoodEntryCount)
	}
	if c.LatestCheckin != nil {
		fmt.Fprintf(&b, "- Latest weekly check-in: overall mood %d/10, sleep quality %d/10, stress level %d/10\n",
			c.LatestCheckin.OverallMood, c.LatestCheckin.SleepQuality, c.LatestCheckin.StressLevel)
	}
	b.WriteString("Use this context to personalize your support, but do not recite it back unless relevant.")
	return b.String()
}
