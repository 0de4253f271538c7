package user

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// Fraction of remote save cycles that also upload a full snapshot backup.
const backupProbability = 0.1

// HybridStore is the single source of truth for user records. It keeps an
// in-memory mirror of the whole collection and persists it through either the
// local file store or the remote object store, falling back to local when the
// remote backend fails.
//
// All public methods serialize on one mutex: the read-modify-write cycle over
// the shared mirror must not interleave across requests.
type HybridStore struct {
	mu        sync.Mutex
	file      *FileStore
	remote    Remote
	useRemote bool
	log       *slog.Logger

	now  func() time.Time
	rand func() float64

	users       []User
	loaded      bool
	lastOutcome SaveOutcome
}

// NewHybridStore wires the facade. remote may be nil; useRemote only takes
// effect when a remote adapter is present.
func NewHybridStore(file *FileStore, remote Remote, useRemote bool, log *slog.Logger) *HybridStore {
	return &HybridStore{
		file:      file,
		remote:    remote,
		useRemote: useRemote && remote != nil,
		log:       log,
		now:       time.Now,
		rand:      rand.Float64,
	}
}

// Initialize populates the in-memory mirror exactly once per process
// lifetime. Safe to call repeatedly.
func (s *HybridStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded(ctx)
}

// ensureLoaded must be called with the mutex held.
func (s *HybridStore) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	if s.useRemote {
		users, err := s.remote.LoadAllUsers(ctx)
		if err == nil {
			s.users = users
			s.loaded = true
			s.log.Info("store initialized from remote", "users", len(users))
			return nil
		}
		s.log.Error("remote load failed, falling back to local", "error", err)
	}

	users, err := s.file.Load()
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			s.log.Error("users file corrupt, starting empty", "error", parseErr)
			users = []User{}
		} else {
			return err
		}
	}

	s.users = users
	s.loaded = true
	s.log.Info("store initialized from local file", "users", len(users))
	return nil
}

// save persists the mirror. Remote-configured cycles write every user
// individually and occasionally snapshot the whole collection; any remote
// failure degrades to the local file for this cycle only. Must be called
// with the mutex held.
func (s *HybridStore) save(ctx context.Context) error {
	if s.useRemote {
		if err := s.saveRemote(ctx); err != nil {
			s.log.Error("remote save failed, falling back to local", "error", err)
			if lerr := s.file.Save(s.users); lerr != nil {
				s.lastOutcome = SaveFailed
				return errors.Join(err, lerr)
			}
			s.lastOutcome = SaveDegraded
			return nil
		}
		s.lastOutcome = SavePrimary
		return nil
	}

	if err := s.file.Save(s.users); err != nil {
		s.lastOutcome = SaveFailed
		return err
	}
	s.lastOutcome = SavePrimary
	return nil
}

func (s *HybridStore) saveRemote(ctx context.Context) error {
	for _, u := range s.users {
		if err := s.remote.SaveUser(ctx, u); err != nil {
			return err
		}
	}

	if s.rand() < backupProbability {
		if _, err := s.remote.CreateBackup(ctx, s.users); err != nil {
			// A failed snapshot does not fail the save cycle.
			s.log.Error("periodic backup failed", "error", err)
		}
	}

	return nil
}

// LastSaveOutcome reports where the most recent save cycle landed.
func (s *HybridStore) LastSaveOutcome() SaveOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutcome
}

// GetAll returns a copy of every record.
func (s *HybridStore) GetAll(ctx context.Context) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	out := make([]User, len(s.users))
	copy(out, s.users)
	return out, nil
}

// FindByID returns a copy of the record with the given ID.
func (s *HybridStore) FindByID(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := s.indexByID(id)
	if idx < 0 {
		return nil, ErrUserNotFound
	}

	u := s.users[idx]
	return &u, nil
}

// FindByEmail returns a copy of the first record with the given email.
// Email is treated as a natural key but uniqueness is the caller's concern.
func (s *HybridStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	for i := range s.users {
		if s.users[i].Email == email {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// Create appends a new record with a fully-initialized profile.
func (s *HybridStore) Create(ctx context.Context, input NewUserInput) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	id := input.ID
	if id == "" {
		id = NewID("user")
	}

	now := Timestamp(s.now())
	prefs := defaultPreferences()
	if input.Preferences != nil {
		prefs = *input.Preferences
	}

	u := User{
		ID:       id,
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Profile: Profile{
			DateJoined:  now,
			LastActive:  now,
			Preferences: prefs,
			MentalHealthData: &MentalHealthData{
				FavoriteResources: []FavoriteResource{},
				MoodTracking:      []MoodEntry{},
				Achievements:      []Achievement{},
				WeeklyCheckins:    []WeeklyCheckin{},
				ChatHistory:       []ChatSession{},
			},
		},
	}

	s.users = append(s.users, u)
	if err := s.save(ctx); err != nil {
		return nil, err
	}

	created := u
	return &created, nil
}

// Update applies top-level account field changes and touches lastActive.
func (s *HybridStore) Update(ctx context.Context, id string, updates UserUpdate) error {
	return s.mutate(ctx, id, func(u *User) error {
		if updates.Name != nil {
			u.Name = *updates.Name
		}
		if updates.Email != nil {
			u.Email = *updates.Email
		}
		return nil
	})
}

// UpdateProfile applies profile field changes and returns the updated profile.
func (s *HybridStore) UpdateProfile(ctx context.Context, id string, updates ProfileUpdate) (*Profile, error) {
	var profile Profile
	err := s.mutate(ctx, id, func(u *User) error {
		if updates.Bio != nil {
			u.Profile.Bio = *updates.Bio
		}
		if updates.ProfilePicture != nil {
			u.Profile.ProfilePicture = *updates.ProfilePicture
		}
		if updates.Preferences != nil {
			u.Profile.Preferences = *updates.Preferences
		}
		profile = u.Profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateLastActive touches the activity timestamp.
func (s *HybridStore) UpdateLastActive(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(*User) error { return nil })
}

// AddMoodEntry appends a mood log with a server-stamped date.
func (s *HybridStore) AddMoodEntry(ctx context.Context, id string, input MoodEntryInput) error {
	return s.mutate(ctx, id, func(u *User) error {
		data := u.ensureMentalHealthData()
		data.MoodTracking = append(data.MoodTracking, MoodEntry{
			Date:             Timestamp(s.now()),
			Mood:             input.Mood,
			Notes:            input.Notes,
			Triggers:         input.Triggers,
			CopingStrategies: input.CopingStrategies,
		})
		return nil
	})
}

// AddWeeklyCheckin appends a check-in with a server-stamped date.
func (s *HybridStore) AddWeeklyCheckin(ctx context.Context, id string, input WeeklyCheckinInput) error {
	return s.mutate(ctx, id, func(u *User) error {
		data := u.ensureMentalHealthData()
		data.WeeklyCheckins = append(data.WeeklyCheckins, WeeklyCheckin{
			Date:              Timestamp(s.now()),
			OverallMood:       input.OverallMood,
			SleepQuality:      input.SleepQuality,
			StressLevel:       input.StressLevel,
			ExerciseFrequency: input.ExerciseFrequency,
			SocialConnection:  input.SocialConnection,
			Notes:             input.Notes,
			Improvements:      input.Improvements,
			Challenges:        input.Challenges,
		})
		return nil
	})
}

// AddFavoriteResource appends a bookmark, preserving insertion order.
func (s *HybridStore) AddFavoriteResource(ctx context.Context, id string, input FavoriteResourceInput) error {
	return s.mutate(ctx, id, func(u *User) error {
		data := u.ensureMentalHealthData()
		data.FavoriteResources = append(data.FavoriteResources, FavoriteResource{
			ID:        NewID("fav"),
			Type:      input.Type,
			Title:     input.Title,
			URL:       input.URL,
			DateAdded: Timestamp(s.now()),
		})
		return nil
	})
}

// CreateChatSession inserts a new session at the head of the history
// (newest-first) and returns its ID.
func (s *HybridStore) CreateChatSession(ctx context.Context, userID, title string) (string, error) {
	sessionID := NewID("chat")
	err := s.mutate(ctx, userID, func(u *User) error {
		data := u.ensureMentalHealthData()
		now := Timestamp(s.now())
		session := ChatSession{
			ID:            sessionID,
			Title:         title,
			CreatedAt:     now,
			LastMessageAt: now,
			Messages:      []ChatMessage{},
		}
		data.ChatHistory = append([]ChatSession{session}, data.ChatHistory...)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// SaveChatMessage appends a message to a session and bumps lastMessageAt.
// The client-assigned message ID and timestamp are stored as-is.
func (s *HybridStore) SaveChatMessage(ctx context.Context, userID, sessionID string, msg ChatMessage) error {
	return s.mutate(ctx, userID, func(u *User) error {
		session := findSession(u, sessionID)
		if session == nil {
			return ErrSessionNotFound
		}
		session.Messages = append(session.Messages, msg)
		session.LastMessageAt = Timestamp(s.now())
		return nil
	})
}

// GetChatHistory returns the user's sessions, newest first.
func (s *HybridStore) GetChatHistory(ctx context.Context, userID string) ([]ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := s.indexByID(userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}

	data := s.users[idx].Profile.MentalHealthData
	if data == nil {
		return []ChatSession{}, nil
	}

	out := make([]ChatSession, len(data.ChatHistory))
	copy(out, data.ChatHistory)
	return out, nil
}

// GetChatSession returns one session by ID.
func (s *HybridStore) GetChatSession(ctx context.Context, userID, sessionID string) (*ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx := s.indexByID(userID)
	if idx < 0 {
		return nil, ErrUserNotFound
	}

	session := findSession(&s.users[idx], sessionID)
	if session == nil {
		return nil, ErrSessionNotFound
	}

	out := *session
	return &out, nil
}

// DeleteChatSession removes one session from the history.
func (s *HybridStore) DeleteChatSession(ctx context.Context, userID, sessionID string) error {
	return s.mutate(ctx, userID, func(u *User) error {
		data := u.Profile.MentalHealthData
		if data == nil {
			return ErrSessionNotFound
		}
		for i := range data.ChatHistory {
			if data.ChatHistory[i].ID == sessionID {
				data.ChatHistory = append(data.ChatHistory[:i], data.ChatHistory[i+1:]...)
				return nil
			}
		}
		return ErrSessionNotFound
	})
}

// UpdateChatSessionTitle renames one session.
func (s *HybridStore) UpdateChatSessionTitle(ctx context.Context, userID, sessionID, title string) error {
	return s.mutate(ctx, userID, func(u *User) error {
		session := findSession(u, sessionID)
		if session == nil {
			return ErrSessionNotFound
		}
		session.Title = title
		return nil
	})
}

// MigrateToRemote writes every user individually to the remote backend and
// takes a snapshot backup. Sequential write-through, no rollback.
func (s *HybridStore) MigrateToRemote(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.remote == nil {
		return 0, ErrRemoteDisabled
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return 0, err
	}

	for _, u := range s.users {
		if err := s.remote.SaveUser(ctx, u); err != nil {
			return 0, err
		}
	}

	if _, err := s.remote.CreateBackup(ctx, s.users); err != nil {
		return 0, err
	}

	s.log.Info("migrated users to remote storage", "count", len(s.users))
	return len(s.users), nil
}

// StorageInfo reports the active backend and record count.
func (s *HybridStore) StorageInfo(ctx context.Context) (StorageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return StorageInfo{}, err
	}

	storageType := "local"
	configured := true
	if s.useRemote {
		storageType = "s3"
		configured = s.remote != nil
	}

	return StorageInfo{
		StorageType:  storageType,
		IsConfigured: configured,
		UserCount:    len(s.users),
		LastSync:     Timestamp(s.now()),
	}, nil
}

// mutate runs fn against the record with the given ID, touches lastActive,
// and persists the mirror.
func (s *HybridStore) mutate(ctx context.Context, id string, fn func(*User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}

	idx := s.indexByID(id)
	if idx < 0 {
		return ErrUserNotFound
	}

	if err := fn(&s.users[idx]); err != nil {
		return err
	}

	s.users[idx].Profile.LastActive = Timestamp(s.now())
	return s.save(ctx)
}

// indexByID is a linear scan; the collection is small by design.
func (s *HybridStore) indexByID(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func findSession(u *User, sessionID string) *ChatSession {
	data := u.Profile.MentalHealthData
	if data == nil {
		return nil
	}
	for i := range data.ChatHistory {
		if data.ChatHistory[i].ID == sessionID {
			return &data.ChatHistory[i]
		}
	}
	return nil
}

func defaultPreferences() Preferences {
	return Preferences{
		FocusAreas: []string{},
		NotificationSettings: NotificationSettings{
			DailyReminders:     true,
			WeeklyCheckins:     true,
			EmergencyResources: true,
		},
		PrivacySettings: PrivacySettings{
			ShareProgress: false,
			AnonymousMode: false,
		},
	}
}
