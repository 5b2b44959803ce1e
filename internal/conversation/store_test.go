package conversation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rid(v int64) *ResponseID {
	r := ResponseID(v)
	return &r
}

func TestAppend_AssignsIncreasingIDsAndDropsWelcome(t *testing.T) {
	s := NewStore()
	require.True(t, s.ShowsWelcome())

	u := s.AppendUser("open tickets?")
	assert.False(t, s.ShowsWelcome())
	a := s.AppendAssistant("You have 3 tickets", []Source{{Kind: "Ticket", ID: 7, Title: "Printer issue"}}, rid(99))

	assert.Equal(t, MessageID(1), u.ID)
	assert.Equal(t, MessageID(2), a.ID)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, FeedbackNotApplicable, u.Feedback)
	assert.Equal(t, RoleAssistant, a.Role)
	assert.Equal(t, FeedbackPending, a.Feedback)
	require.Len(t, a.Sources, 1)
	assert.Equal(t, "Ticket #7: Printer issue", a.Sources[0].String())

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "open tickets?", msgs[0].Text)
	assert.Equal(t, "You have 3 tickets", msgs[1].Text)
}

func TestAppendAssistant_WithoutResponseIDIsNotApplicable(t *testing.T) {
	s := NewStore()
	m := s.AppendAssistant("Désolé", nil, nil)
	assert.Equal(t, FeedbackNotApplicable, m.Feedback)
	assert.Empty(t, m.Sources)
	assert.False(t, m.AcceptsFeedback())

	require.ErrorIs(t, s.RecordFeedback(m.ID, true), ErrInvalidTransition)
	require.ErrorIs(t, s.MarkFeedbackFailed(m.ID), ErrInvalidTransition)
	require.ErrorIs(t, s.RetryFeedback(m.ID), ErrInvalidTransition)
}

func TestFeedback_RecordOnce(t *testing.T) {
	s := NewStore()
	m := s.AppendAssistant("answer", nil, rid(5))

	require.NoError(t, s.RecordFeedback(m.ID, true))
	got, ok := s.Get(m.ID)
	require.True(t, ok)
	assert.Equal(t, FeedbackRecorded, got.Feedback)
	assert.True(t, got.Helpful)

	// Recorded is terminal.
	require.ErrorIs(t, s.RecordFeedback(m.ID, false), ErrInvalidTransition)
	require.ErrorIs(t, s.MarkFeedbackFailed(m.ID), ErrInvalidTransition)
	require.ErrorIs(t, s.RetryFeedback(m.ID), ErrInvalidTransition)
	got, _ = s.Get(m.ID)
	assert.True(t, got.Helpful)
}

func TestFeedback_FailRetryRecord(t *testing.T) {
	s := NewStore()
	m := s.AppendAssistant("answer", nil, rid(5))

	require.ErrorIs(t, s.RetryFeedback(m.ID), ErrInvalidTransition)
	require.NoError(t, s.MarkFeedbackFailed(m.ID))
	got, _ := s.Get(m.ID)
	assert.Equal(t, FeedbackFailed, got.Feedback)
	assert.True(t, got.AcceptsFeedback())

	require.ErrorIs(t, s.RecordFeedback(m.ID, false), ErrInvalidTransition)
	require.ErrorIs(t, s.MarkFeedbackFailed(m.ID), ErrInvalidTransition)

	require.NoError(t, s.RetryFeedback(m.ID))
	require.NoError(t, s.RecordFeedback(m.ID, false))
	got, _ = s.Get(m.ID)
	assert.Equal(t, FeedbackRecorded, got.Feedback)
	assert.False(t, got.Helpful)
}

func TestFeedback_UserMessage(t *testing.T) {
	s := NewStore()
	m := s.AppendUser("hi")
	require.ErrorIs(t, s.RecordFeedback(m.ID, true), ErrInvalidTransition)
}

func TestFeedback_UnknownMessage(t *testing.T) {
	s := NewStore()
	require.ErrorIs(t, s.RecordFeedback(1, true), ErrUnknownMessage)
	require.ErrorIs(t, s.MarkFeedbackFailed(0), ErrUnknownMessage)
	require.ErrorIs(t, s.RetryFeedback(-4), ErrUnknownMessage)
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.AppendUser("a")
	s.AppendAssistant("b", nil, rid(1))
	epoch := s.Epoch()

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Messages())
	assert.True(t, s.ShowsWelcome())
	assert.Greater(t, s.Epoch(), epoch)

	m := s.AppendUser("again")
	assert.Equal(t, MessageID(1), m.ID)
	_, ok := s.Get(2)
	assert.False(t, ok)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	s := NewStore()
	m := s.AppendAssistant("a", []Source{{Kind: "KB", ID: 1, Title: "VPN"}}, rid(3))
	m.Sources[0].Title = "changed"

	got, _ := s.Get(m.ID)
	assert.Equal(t, "VPN", got.Sources[0].Title)
}

func TestCreatedAtUsesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 14, 5, 0, 0, time.UTC)
	s := NewStore()
	s.now = func() time.Time { return fixed }
	assert.Equal(t, fixed, s.AppendUser("x").CreatedAt)
}

func TestConcurrentAppends(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AppendUser("x")
		}()
	}
	wg.Wait()

	msgs := s.Messages()
	require.Len(t, msgs, 50)
	for i, m := range msgs {
		assert.Equal(t, MessageID(i+1), m.ID)
	}
}
