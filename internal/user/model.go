// Package user implements the account record model and the dual-backend
// store that persists it: a local JSON file, an S3 bucket, or both behind
// the hybrid facade.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is one account record. JSON field names mirror the persisted layout of
// the existing users.json files and per-user S3 objects, so data written by
// earlier deployments loads unchanged.
type User struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Password string  `json:"password"` // bcrypt hash, never returned by the API
	Name     string  `json:"name"`
	Profile  Profile `json:"profile"`
}

// Profile carries identity metadata, preferences and the tracked
// mental-health collections.
type Profile struct {
	DateJoined     string `json:"dateJoined"`
	LastActive     string `json:"lastActive"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`

	Preferences Preferences `json:"preferences"`

	// MentalHealthData may be absent on records created before the field
	// existed; write paths lazily initialize it.
	MentalHealthData *MentalHealthData `json:"mentalHealthData,omitempty"`
}

// Preferences groups the user's topic focus and toggles.
type Preferences struct {
	FocusAreas           []string             `json:"focusAreas"`
	NotificationSettings NotificationSettings `json:"notificationSettings"`
	PrivacySettings      PrivacySettings      `json:"privacySettings"`
}

type NotificationSettings struct {
	DailyReminders     bool `json:"dailyReminders"`
	WeeklyCheckins     bool `json:"weeklyCheckins"`
	EmergencyResources bool `json:"emergencyResources"`
}

type PrivacySettings struct {
	ShareProgress bool `json:"shareProgress"`
	AnonymousMode bool `json:"anonymousMode"`
}

// MentalHealthData holds the ordered, append-mostly collections tracked per user.
type MentalHealthData struct {
	FavoriteResources []FavoriteResource `json:"favoriteResources"`
	MoodTracking      []MoodEntry        `json:"moodTracking"`
	Achievements      []Achievement      `json:"achievements"`
	WeeklyCheckins    []WeeklyCheckin    `json:"weeklyCheckins"`

	// ChatHistory is kept newest-first: new sessions are inserted at the
	// head, unlike the other collections which append.
	ChatHistory []ChatSession `json:"chatHistory"`
}

// FavoriteResource is a user-curated bookmark; insertion order is preserved.
type FavoriteResource struct {
	ID        string `json:"id"`
	Type      string `json:"type"` // condition | article | exercise | resource
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	DateAdded string `json:"dateAdded"`
}

// MoodEntry is one mood log. Date is stamped server-side at insert.
type MoodEntry struct {
	Date             string   `json:"date"`
	Mood             int      `json:"mood"` // 1-10 scale
	Notes            string   `json:"notes,omitempty"`
	Triggers         []string `json:"triggers,omitempty"`
	CopingStrategies []string `json:"copingStrategies,omitempty"`
}

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	DateEarned  string `json:"dateEarned"`
	Category    string `json:"category"` // consistency | progress | milestones | engagement
}

// WeeklyCheckin is one weekly self-assessment. Date is stamped server-side.
type WeeklyCheckin struct {
	Date              string   `json:"date"`
	OverallMood       int      `json:"overallMood"`
	SleepQuality      int      `json:"sleepQuality"`
	StressLevel       int      `json:"stressLevel"`
	ExerciseFrequency int      `json:"exerciseFrequency"`
	SocialConnection  int      `json:"socialConnection"`
	Notes             string   `json:"notes,omitempty"`
	Improvements      []string `json:"improvements,omitempty"`
	Challenges        []string `json:"challenges,omitempty"`
}

// ChatSession is one conversation owned by its parent user record.
type ChatSession struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	CreatedAt     string        `json:"createdAt"`
	LastMessageAt string        `json:"lastMessageAt"`
	Messages      []ChatMessage `json:"messages"`
	Summary       string        `json:"summary,omitempty"`
}

// ChatMessage is one turn in a session. Unlike mood/check-in entries, the
// client-assigned ID and timestamp are trusted as-is.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // user | assistant
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ensureMentalHealthData lazily initializes the tracked collections on records
// created before the field existed.
func (u *User) ensureMentalHealthData() *MentalHealthData {
	if u.Profile.MentalHealthData == nil {
		u.Profile.MentalHealthData = &MentalHealthData{
			FavoriteResources: []FavoriteResource{},
			MoodTracking:      []MoodEntry{},
			Achievements:      []Achievement{},
			WeeklyCheckins:    []WeeklyCheckin{},
			ChatHistory:       []ChatSession{},
		}
	}
	return u.Profile.MentalHealthData
}

// NewID returns a prefixed identifier with a millisecond timestamp and a
// high-entropy random suffix. Uniqueness is probabilistic, not enforced.
func NewID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), suffix)
}

// Timestamp formats t the way the persisted records expect: UTC ISO-8601
// with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
