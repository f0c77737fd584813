package sqlite

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-assistant/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "data", "campus.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.InitSchema())
	return c
}

func insertMessages(t *testing.T, c *Client, session string, n int) {
	t.Helper()
	base := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		require.NoError(t, c.InsertMessage(&models.Message{
			ID:        fmt.Sprintf("%s-%02d", session, i),
			SessionID: session,
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			Language:  "en",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	c := newTestClient(t)
	insertMessages(t, c, "s1", 4)
	insertMessages(t, c, "s2", 1)

	msgs, err := c.GetMessages("s1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "s1-00", msgs[0].ID)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "message 3", msgs[3].Content)

	latest, err := c.GetMessages("s1", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "s1-02", latest[0].ID)
	assert.Equal(t, "s1-03", latest[1].ID)
}

func TestTrimMessagesKeepsNewest(t *testing.T) {
	c := newTestClient(t)
	insertMessages(t, c, "s1", 55)

	removed, err := c.TrimMessages("s1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)

	msgs, err := c.GetMessages("s1", 100)
	require.NoError(t, err)
	require.Len(t, msgs, 50)
	assert.Equal(t, "s1-05", msgs[0].ID)
}

func TestDeleteMessages(t *testing.T) {
	c := newTestClient(t)
	insertMessages(t, c, "s1", 3)
	insertMessages(t, c, "s2", 2)

	removed, err := c.DeleteMessages("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	msgs, err := c.GetMessages("s2", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestFeedback(t *testing.T) {
	c := newTestClient(t)
	insertMessages(t, c, "s1", 2)

	fb := &models.Feedback{MessageID: "s1-01", Helpful: true}
	require.NoError(t, c.StoreFeedback(fb))
	assert.NotZero(t, fb.ID)
	require.NoError(t, c.StoreFeedback(&models.Feedback{MessageID: "s1-01", Helpful: false, Comment: "wrong block"}))

	err := c.StoreFeedback(&models.Feedback{MessageID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	stats, err := c.GetFeedbackStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Helpful)
	assert.Equal(t, 1, stats.NotHelpful)
	assert.InDelta(t, 0.5, stats.HelpfulRate, 0.0001)
}

func TestFeedbackStatsEmpty(t *testing.T) {
	c := newTestClient(t)
	stats, err := c.GetFeedbackStats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.HelpfulRate)
}

func TestQueryHistory(t *testing.T) {
	c := newTestClient(t)
	now := time.Now()

	require.NoError(t, c.InsertQueryRecord(&models.QueryRecord{
		ID: "q1", SessionID: "s1", QueryText: "where is the library", Language: "en",
		Source: "location", Category: "location", Confidence: 0.9, LatencyMS: 3, CreatedAt: now,
	}))
	require.NoError(t, c.InsertQueryRecord(&models.QueryRecord{
		ID: "q2", SessionID: "s1", QueryText: "hostel undo", Language: "manglish",
		Source: "category", Category: "hostel", Confidence: 0.85, Augmented: true, CreatedAt: now.Add(time.Second),
	}))

	records, err := c.GetQueryHistory("s1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q2", records[0].ID)
	assert.True(t, records[0].Augmented)
	assert.Equal(t, "location", records[1].Source)
}
