// Package conversation keeps the ordered messages of the current conversation and drives the
// feedback state machine of each answer.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/comigor/helpdesk-go/internal/logger"
)

var (
	// ErrInvalidTransition is returned when a feedback trigger is not permitted in the current state.
	ErrInvalidTransition = errors.New("invalid feedback transition")
	// ErrUnknownMessage is returned for an id that is not in the conversation.
	ErrUnknownMessage = errors.New("unknown message")
)

// Feedback triggers
type feedbackTrigger string

const (
	triggerRecord feedbackTrigger = "Record"
	triggerFail   feedbackTrigger = "Fail"
	triggerRetry  feedbackTrigger = "Retry"
)

type entry struct {
	msg Message
	fsm *stateless.StateMachine
}

// Store is an append-only conversation. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries []*entry
	nextID  MessageID
	epoch   uint64
	welcome bool
	now     func() time.Time
}

// NewStore returns an empty conversation showing the welcome placeholder.
func NewStore() *Store {
	return &Store{nextID: 1, welcome: true, now: time.Now}
}

// newFeedbackMachine wires the per-answer feedback lifecycle:
//
//	Pending --Record(bool)--> Recorded
//	Pending --Fail--> Failed --Retry--> Pending
//
// NotApplicable permits nothing.
func newFeedbackMachine(id MessageID, initial FeedbackState, helpful *bool) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(initial)
	fsm.SetTriggerParameters(triggerRecord, reflect.TypeOf(true))

	fsm.Configure(FeedbackPending).
		Permit(triggerRecord, FeedbackRecorded).
		Permit(triggerFail, FeedbackFailed)

	fsm.Configure(FeedbackRecorded).
		OnEntryFrom(triggerRecord, func(_ context.Context, args ...any) error {
			*helpful = args[0].(bool)
			return nil
		})

	fsm.Configure(FeedbackFailed).
		Permit(triggerRetry, FeedbackPending)

	fsm.Configure(FeedbackNotApplicable)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("feedback transition", "message_id", id, "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})
	return fsm
}

func (s *Store) appendLocked(role Role, text string, sources []Source, responseID *ResponseID) Message {
	msg := Message{
		ID:         s.nextID,
		Role:       role,
		Text:       text,
		CreatedAt:  s.now(),
		Sources:    slices.Clone(sources),
		ResponseID: responseID,
		Feedback:   FeedbackNotApplicable,
	}
	if role == RoleAssistant && responseID != nil {
		msg.Feedback = FeedbackPending
	}
	e := &entry{msg: msg}
	e.fsm = newFeedbackMachine(msg.ID, msg.Feedback, &e.msg.Helpful)

	s.nextID++
	s.entries = append(s.entries, e)
	s.welcome = false
	return e.snapshot()
}

// AppendUser appends a user message.
func (s *Store) AppendUser(text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(RoleUser, text, nil, nil)
}

// AppendAssistant appends an answer. Its feedback starts Pending when responseID is set,
// NotApplicable otherwise.
func (s *Store) AppendAssistant(text string, sources []Source, responseID *ResponseID) Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(RoleAssistant, text, sources, responseID)
}

// RecordFeedback moves a Pending message to Recorded with the given rating.
func (s *Store) RecordFeedback(id MessageID, isHelpful bool) error {
	return s.fire(id, triggerRecord, isHelpful)
}

// MarkFeedbackFailed moves a Pending message to Failed.
func (s *Store) MarkFeedbackFailed(id MessageID) error {
	return s.fire(id, triggerFail)
}

// RetryFeedback moves a Failed message back to Pending.
func (s *Store) RetryFeedback(id MessageID) error {
	return s.fire(id, triggerRetry)
}

func (s *Store) fire(id MessageID, trigger feedbackTrigger, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookupLocked(id)
	if e == nil {
		return fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	from := e.state()
	if err := e.fsm.Fire(trigger, args...); err != nil {
		return fmt.Errorf("%w: %s from %s on message %d", ErrInvalidTransition, trigger, from, id)
	}
	return nil
}

// Clear empties the conversation, restarts ids at 1 and brings back the welcome placeholder.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.nextID = 1
	s.welcome = true
	s.epoch++
}

// Epoch counts Clear calls. Work started under one epoch must not touch a later one.
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// ShowsWelcome reports whether the welcome placeholder is still displayed.
func (s *Store) ShowsWelcome() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.welcome
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Get returns a snapshot of one message.
func (s *Store) Get(id MessageID) (Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookupLocked(id)
	if e == nil {
		return Message{}, false
	}
	return e.snapshot(), true
}

// Messages returns snapshots of all messages in creation order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.snapshot()
	}
	return out
}

// lookupLocked relies on ids being dense and starting at 1.
func (s *Store) lookupLocked(id MessageID) *entry {
	i := int(id) - 1
	if i < 0 || i >= len(s.entries) {
		return nil
	}
	return s.entries[i]
}

func (e *entry) state() FeedbackState {
	return e.fsm.MustState().(FeedbackState)
}

func (e *entry) snapshot() Message {
	m := e.msg
	m.Feedback = e.state()
	m.Sources = slices.Clone(e.msg.Sources)
	return m
}
