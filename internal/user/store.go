package user

import (
	"context"
	"errors"
)

// Sentinel errors surfaced by store lookups and mutations. The HTTP layer
// maps these to 404-equivalents.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("chat session not found")
	ErrRemoteDisabled  = errors.New("remote storage is not configured")
)

// SaveOutcome distinguishes where a save cycle actually landed, so callers
// and logs can tell "wrote to primary" from "wrote to fallback only".
type SaveOutcome int

const (
	SaveNone SaveOutcome = iota
	SavePrimary
	SaveDegraded
	SaveFailed
)

func (o SaveOutcome) String() string {
	switch o {
	case SavePrimary:
		return "primary"
	case SaveDegraded:
		return "degraded"
	case SaveFailed:
		return "failed"
	default:
		return "none"
	}
}

// Remote is the slice of the object-storage adapter the hybrid store uses.
type Remote interface {
	SaveUser(ctx context.Context, u User) error
	LoadAllUsers(ctx context.Context) ([]User, error)
	CreateBackup(ctx context.Context, users []User) (string, error)
}

// NewUserInput describes a signup. Password must already be hashed.
type NewUserInput struct {
	ID          string // generated when empty
	Email       string
	Password    string
	Name        string
	Preferences *Preferences
}

// UserUpdate carries the mutable top-level account fields.
type UserUpdate struct {
	Name  *string
	Email *string
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	Bio            *string
	ProfilePicture *string
	Preferences    *Preferences
}

// MoodEntryInput is a mood log before the server stamps its date.
type MoodEntryInput struct {
	Mood             int
	Notes            string
	Triggers         []string
	CopingStrategies []string
}

// WeeklyCheckinInput is a check-in before the server stamps its date.
type WeeklyCheckinInput struct {
	OverallMood       int
	SleepQuality      int
	StressLevel       int
	ExerciseFrequency int
	SocialConnection  int
	Notes             string
	Improvements      []string
	Challenges        []string
}

// FavoriteResourceInput is a bookmark before the server stamps its date.
type FavoriteResourceInput struct {
	Type  string
	Title string
	URL   string
}

// StorageInfo summarizes which backend is active.
type StorageInfo struct {
	StorageType  string `json:"storageType"` // local | s3
	IsConfigured bool   `json:"isConfigured"`
	UserCount    int    `json:"userCount"`
	LastSync     string `json:"lastSync,omitempty"`
}
