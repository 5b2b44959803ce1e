package conversation

import (
	"fmt"
	"time"
)

// MessageID identifies a message within one conversation. IDs start at 1 and grow by one
// per append; Clear starts over.
type MessageID int64

// ResponseID is the backend identity of an answer, used to submit feedback on it.
type ResponseID int64

// Role tells who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FeedbackState is where a message stands in the feedback loop.
type FeedbackState string

const (
	// FeedbackNotApplicable is terminal: user messages and answers without a response id.
	FeedbackNotApplicable FeedbackState = "not_applicable"
	// FeedbackPending waits for the user to rate the answer.
	FeedbackPending FeedbackState = "pending"
	// FeedbackRecorded is terminal; Message.Helpful holds the rating.
	FeedbackRecorded FeedbackState = "recorded"
	// FeedbackFailed means the last submission failed; it may be retried.
	FeedbackFailed FeedbackState = "failed"
)

// Source is a citation attached to an answer.
type Source struct {
	Kind  string
	ID    int64
	Title string
}

func (s Source) String() string {
	return fmt.Sprintf("%s #%d: %s", s.Kind, s.ID, s.Title)
}

// Message is a snapshot of one conversation entry. Only Feedback and Helpful ever change,
// and only through the Store.
type Message struct {
	ID         MessageID
	Role       Role
	Text       string
	CreatedAt  time.Time
	Sources    []Source
	ResponseID *ResponseID
	Feedback   FeedbackState
	Helpful    bool
}

// AcceptsFeedback reports whether a rating can be submitted now (Pending or Failed).
func (m Message) AcceptsFeedback() bool {
	return m.Feedback == FeedbackPending || m.Feedback == FeedbackFailed
}
