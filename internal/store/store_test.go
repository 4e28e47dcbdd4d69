package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/meehighlov/reventor/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Event{}))

	return New(db)
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("02.01.2006 15:04", value, time.Local)
	require.NoError(t, err)
	return parsed
}

func TestEnsureUserIdempotent(t *testing.T) {
	st := setupStore(t)

	first, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NotZero(t, first)

	second, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same telegram id resolves to the same internal id")

	var count int64
	require.NoError(t, st.db.Model(&models.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "exactly one user row created")
}

func TestEnsureUserDistinctSenders(t *testing.T) {
	st := setupStore(t)

	alice, err := st.EnsureUser(1, "alice")
	require.NoError(t, err)
	bob, err := st.EnsureUser(2, "bob")
	require.NoError(t, err)

	assert.NotEqual(t, alice, bob)
}

func TestListEventsAscendingByTimestamp(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)

	// Inserted out of order on purpose
	require.NoError(t, st.CreateEvent(userID, "@02.06 10:00 second", "02.06.2024 10:00", mustTime(t, "02.06.2024 10:00")))
	require.NoError(t, st.CreateEvent(userID, "@01.06 09:00 first", "01.06.2024 09:00", mustTime(t, "01.06.2024 09:00")))
	require.NoError(t, st.CreateEvent(userID, "@03.06 08:00 third", "03.06.2024 08:00", mustTime(t, "03.06.2024 08:00")))

	events, err := st.ListEvents(555)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "01.06.2024 09:00", events[0].EventTime)
	assert.Equal(t, "02.06.2024 10:00", events[1].EventTime)
	assert.Equal(t, "03.06.2024 08:00", events[2].EventTime)
}

func TestListEventsEmptyAndUnknownUser(t *testing.T) {
	st := setupStore(t)

	events, err := st.ListEvents(404)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestListEventsExcludesDelivered(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NoError(t, st.CreateEvent(userID, "done one", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))
	require.NoError(t, st.CreateEvent(userID, "still pending", "01.05.2024 10:30", mustTime(t, "01.05.2024 10:30")))

	require.NoError(t, st.MarkDelivered(555, "01.05.2024 09:30"))

	events, err := st.ListEvents(555)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "still pending", events[0].Text)
}

func TestFindDueMatchesAtOrBeforeNow(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NoError(t, st.CreateEvent(userID, "on the minute", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))
	require.NoError(t, st.CreateEvent(userID, "missed earlier", "01.05.2024 09:00", mustTime(t, "01.05.2024 09:00")))
	require.NoError(t, st.CreateEvent(userID, "not yet", "01.05.2024 09:31", mustTime(t, "01.05.2024 09:31")))

	due, err := st.FindDue(mustTime(t, "01.05.2024 09:30"))
	require.NoError(t, err)
	require.Len(t, due, 2, "a scan delayed past an event's minute still picks it up")
	assert.Equal(t, "missed earlier", due[0].Text)
	assert.Equal(t, "on the minute", due[1].Text)
	assert.EqualValues(t, 555, due[0].TelegramID)
}

func TestMarkDeliveredIsTerminal(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NoError(t, st.CreateEvent(userID, "@09:30 dentist", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))

	require.NoError(t, st.MarkDelivered(555, "01.05.2024 09:30"))

	// Delivered events never come back, no matter how far now advances
	for _, now := range []string{"01.05.2024 09:30", "01.05.2024 09:31", "02.05.2030 00:00"} {
		due, err := st.FindDue(mustTime(t, now))
		require.NoError(t, err)
		assert.Empty(t, due, "now=%s", now)
	}
}

func TestMarkDeliveredZeroRowsIsNoError(t *testing.T) {
	st := setupStore(t)

	assert.NoError(t, st.MarkDelivered(555, "01.05.2024 09:30"))
}

func TestMarkDeliveredSameMinuteCoarseness(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NoError(t, st.CreateEvent(userID, "first", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))
	require.NoError(t, st.CreateEvent(userID, "second", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))

	require.NoError(t, st.MarkDelivered(555, "01.05.2024 09:30"))

	// Two events of one user in the same minute are indistinguishable and
	// flip to delivered together
	due, err := st.FindDue(mustTime(t, "01.05.2024 09:30"))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkDeliveredScopedToOwner(t *testing.T) {
	st := setupStore(t)

	alice, err := st.EnsureUser(1, "alice")
	require.NoError(t, err)
	bob, err := st.EnsureUser(2, "bob")
	require.NoError(t, err)

	require.NoError(t, st.CreateEvent(alice, "alice event", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))
	require.NoError(t, st.CreateEvent(bob, "bob event", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))

	require.NoError(t, st.MarkDelivered(1, "01.05.2024 09:30"))

	due, err := st.FindDue(mustTime(t, "01.05.2024 09:30"))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "bob event", due[0].Text)
}

func TestCountByStatus(t *testing.T) {
	st := setupStore(t)

	userID, err := st.EnsureUser(555, "alice")
	require.NoError(t, err)
	require.NoError(t, st.CreateEvent(userID, "a", "01.05.2024 09:30", mustTime(t, "01.05.2024 09:30")))
	require.NoError(t, st.CreateEvent(userID, "b", "01.05.2024 10:30", mustTime(t, "01.05.2024 10:30")))
	require.NoError(t, st.MarkDelivered(555, "01.05.2024 09:30"))

	pending, delivered, err := st.CountByStatus()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)
	assert.EqualValues(t, 1, delivered)
}
