package user

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	users map[string]User

	failSave bool
	failLoad bool

	saveCalls   int
	backupCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{users: map[string]User{}}
}

func (f *fakeRemote) SaveUser(_ context.Context, u User) error {
	f.saveCalls++
	if f.failSave {
		return errors.New("put object: access denied")
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeRemote) LoadAllUsers(_ context.Context) ([]User, error) {
	if f.failLoad {
		return nil, errors.New("list objects: connection refused")
	}
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRemote) CreateBackup(_ context.Context, users []User) (string, error) {
	f.backupCalls++
	if f.failSave {
		return "", errors.New("put object: access denied")
	}
	return "backups/users-backup-test.json", nil
}

func newLocalStore(t *testing.T) *HybridStore {
	t.Helper()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	return NewHybridStore(file, nil, false, testLogger())
}

func TestCreateInitializesProfile(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	created, err := store.Create(ctx, NewUserInput{
		Email:    "alice@example.com",
		Password: "hashed",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.Profile.DateJoined, created.Profile.LastActive)

	data := created.Profile.MentalHealthData
	require.NotNil(t, data)
	assert.Empty(t, data.MoodTracking)
	assert.Empty(t, data.ChatHistory)
	assert.NotNil(t, data.FavoriteResources)

	assert.True(t, created.Profile.Preferences.NotificationSettings.DailyReminders)
	assert.False(t, created.Profile.Preferences.PrivacySettings.ShareProgress)

	found, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMoodEntriesAppendInOrder(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	for _, mood := range []int{3, 5, 8} {
		require.NoError(t, store.AddMoodEntry(ctx, u.ID, MoodEntryInput{Mood: mood}))
	}

	found, err := store.FindByID(ctx, u.ID)
	require.NoError(t, err)
	entries := found.Profile.MentalHealthData.MoodTracking
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Mood)
	assert.Equal(t, 5, entries[1].Mood)
	assert.Equal(t, 8, entries[2].Mood)
	assert.NotEmpty(t, entries[0].Date)
}

func TestChatSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)

	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		id, err := store.CreateChatSession(ctx, u.ID, title)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	history, err := store.GetChatHistory(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, ids[2], history[0].ID)
	assert.Equal(t, "Third", history[0].Title)
	assert.Equal(t, ids[0], history[2].ID)
}

func TestSaveChatMessageBumpsLastMessageAt(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	sessionID, err := store.CreateChatSession(ctx, u.ID, "Check In")
	require.NoError(t, err)

	clock = clock.Add(5 * time.Minute)
	msg := ChatMessage{ID: "msg_1", Role: "user", Content: "hello", Timestamp: Timestamp(clock)}
	require.NoError(t, store.SaveChatMessage(ctx, u.ID, sessionID, msg))

	session, err := store.GetChatSession(ctx, u.ID, sessionID)
	require.NoError(t, err)
	require.Len(t, session.Messages, 1)
	assert.Equal(t, "msg_1", session.Messages[0].ID)
	assert.Equal(t, "2026-03-01T10:05:00.000Z", session.LastMessageAt)
	assert.Equal(t, "2026-03-01T10:00:00.000Z", session.CreatedAt)

	err = store.SaveChatMessage(ctx, u.ID, "chat_missing", msg)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteAndRenameChatSession(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	keep, err := store.CreateChatSession(ctx, u.ID, "Keep")
	require.NoError(t, err)
	drop, err := store.CreateChatSession(ctx, u.ID, "Drop")
	require.NoError(t, err)

	require.NoError(t, store.UpdateChatSessionTitle(ctx, u.ID, keep, "Kept"))
	require.NoError(t, store.DeleteChatSession(ctx, u.ID, drop))

	history, err := store.GetChatHistory(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Kept", history[0].Title)

	assert.ErrorIs(t, store.DeleteChatSession(ctx, u.ID, drop), ErrSessionNotFound)
}

func TestLazyMentalHealthDataInit(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	require.NoError(t, file.Save([]User{{ID: "user_legacy", Email: "old@example.com", Name: "Old"}}))

	store := NewHybridStore(file, nil, false, testLogger())

	found, err := store.FindByID(ctx, "user_legacy")
	require.NoError(t, err)
	assert.Nil(t, found.Profile.MentalHealthData)

	require.NoError(t, store.AddMoodEntry(ctx, "user_legacy", MoodEntryInput{Mood: 6}))

	found, err = store.FindByID(ctx, "user_legacy")
	require.NoError(t, err)
	require.NotNil(t, found.Profile.MentalHealthData)
	assert.Len(t, found.Profile.MentalHealthData.MoodTracking, 1)
}

func TestRemoteSaveFailureDegradesToLocal(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	remote := newFakeRemote()
	remote.failSave = true

	store := NewHybridStore(file, remote, true, testLogger())

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, SaveDegraded, store.LastSaveOutcome())

	// The write must have landed in the local fallback file.
	onDisk, err := file.Load()
	require.NoError(t, err)
	require.Len(t, onDisk, 1)
	assert.Equal(t, u.ID, onDisk[0].ID)
}

func TestRemoteSaveSuccess(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	remote := newFakeRemote()

	store := NewHybridStore(file, remote, true, testLogger())
	store.rand = func() float64 { return 0.9 } // no backup this cycle

	u, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, SavePrimary, store.LastSaveOutcome())
	assert.Contains(t, remote.users, u.ID)
	assert.Zero(t, remote.backupCalls)

	// And nothing written locally on a clean remote cycle.
	onDisk, err := file.Load()
	require.NoError(t, err)
	assert.Empty(t, onDisk)
}

func TestProbabilisticBackup(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	remote := newFakeRemote()

	store := NewHybridStore(file, remote, true, testLogger())
	store.rand = func() float64 { return 0.05 }

	_, err := store.Create(ctx, NewUserInput{Email: "a@example.com", Name: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.backupCalls)
	assert.Equal(t, SavePrimary, store.LastSaveOutcome())
}

func TestRemoteLoadFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	require.NoError(t, file.Save([]User{{ID: "user_1", Email: "a@example.com", Name: "A"}}))

	remote := newFakeRemote()
	remote.failLoad = true

	store := NewHybridStore(file, remote, true, testLogger())
	require.NoError(t, store.Initialize(ctx))

	found, err := store.FindByID(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
}

func TestMigrateToRemote(t *testing.T) {
	ctx := context.Background()
	file := NewFileStore(filepath.Join(t.TempDir(), "users.json"), testLogger())
	require.NoError(t, file.Save([]User{
		{ID: "user_1", Email: "a@example.com"},
		{ID: "user_2", Email: "b@example.com"},
	}))

	remote := newFakeRemote()
	store := NewHybridStore(file, remote, false, testLogger())

	count, err := store.MigrateToRemote(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, remote.saveCalls)
	assert.Equal(t, 1, remote.backupCalls)
}

func TestMigrateWithoutRemote(t *testing.T) {
	store := newLocalStore(t)
	_, err := store.MigrateToRemote(context.Background())
	assert.ErrorIs(t, err, ErrRemoteDisabled)
}

func TestStorageInfo(t *testing.T) {
	ctx := context.Background()
	store := newLocalStore(t)
	_, err := store.Create(ctx, NewUserInput{Email: "a@example.com"})
	require.NoError(t, err)

	info, err := store.StorageInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "local", info.StorageType)
	assert.True(t, info.IsConfigured)
	assert.Equal(t, 1, info.UserCount)
}
