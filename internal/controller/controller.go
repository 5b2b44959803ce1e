// Package controller turns user actions into transport calls and conversation updates.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/qmuntal/stateless"

	"github.com/comigor/helpdesk-go/internal/conversation"
	"github.com/comigor/helpdesk-go/internal/logger"
	"github.com/comigor/helpdesk-go/internal/session"
	"github.com/comigor/helpdesk-go/internal/transport"
)

// FailureText replaces the answer when an ask request fails.
const FailureText = "Désolé, une erreur est survenue. Veuillez réessayer."

// ErrBusy is returned by Send while another ask request is in flight.
var ErrBusy = errors.New("an ask request is already in flight")

// FSM States
type State string

const (
	StateIdle    State = "Idle"
	StateSending State = "Sending"
)

// FSM Triggers
type Trigger string

const (
	TriggerSend      Trigger = "Send"
	TriggerAnswered  Trigger = "Answered"
	TriggerAskFailed Trigger = "AskFailed"
	TriggerReset     Trigger = "Reset" // conversation cleared while sending
)

// Backend is the subset of transport.Client the controller uses; it is easy to fake in tests.
type Backend interface {
	Ask(ctx context.Context, userID int64, question string) (transport.AskResponse, error)
	SubmitFeedback(ctx context.Context, responseID int64, isHelpful bool) error
}

// Recorder receives a transcript of the conversation. Failures are logged and otherwise ignored.
type Recorder interface {
	RecordMessage(ctx context.Context, sessionID string, epoch uint64, m conversation.Message) error
	RecordFeedback(ctx context.Context, sessionID string, epoch uint64, m conversation.Message) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithRecorder attaches a transcript recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithEventSink delivers events to fn. fn is called without any lock held, from whichever
// goroutine made the change, and must not block for long.
func WithEventSink(fn func(Event)) Option {
	return func(c *Controller) { c.sink = fn }
}

// Controller owns the session, the conversation and the ask state machine.
type Controller struct {
	backend  Backend
	recorder Recorder
	sink     func(Event)

	mu       sync.Mutex
	session  *session.Session
	store    *conversation.Store
	fsm      *stateless.StateMachine
	inflight map[conversation.MessageID]bool // feedback submissions under way
}

// New creates a logged-out controller with an empty conversation.
func New(backend Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		session:  session.New(),
		store:    conversation.NewStore(),
		inflight: make(map[conversation.MessageID]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	// State: Idle
	// Transitions:
	//   - On Send -> StateSending
	//   - Reset is ignored
	// State: Sending
	// Transitions:
	//   - On Answered, AskFailed or Reset -> StateIdle
	c.fsm = stateless.NewStateMachine(StateIdle)
	c.fsm.Configure(StateIdle).
		Permit(TriggerSend, StateSending).
		Ignore(TriggerReset)
	c.fsm.Configure(StateSending).
		Permit(TriggerAnswered, StateIdle).
		Permit(TriggerAskFailed, StateIdle).
		Permit(TriggerReset, StateIdle)
	c.fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("ask transition", "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})
	return c
}

// Store exposes the conversation for read access.
func (c *Controller) Store() *conversation.Store { return c.store }

// Pending reports whether an ask request is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.MustState() == StateSending
}

// Snapshot is everything presentation needs to draw one frame.
type Snapshot struct {
	LoggedIn  bool
	UserID    int64
	SessionID string
	Pending   bool
	Welcome   bool
	Messages  []conversation.Message
}

// Snapshot returns a consistent copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	userID, ok := c.session.UserID()
	snap := Snapshot{
		LoggedIn: ok,
		UserID:   userID,
		Pending:  c.fsm.MustState() == StateSending,
		Welcome:  c.store.ShowsWelcome(),
		Messages: c.store.Messages(),
	}
	if ok {
		snap.SessionID = c.session.ID().String()
	}
	return snap
}

// Login validates raw and makes it the current user.
func (c *Controller) Login(raw string) error {
	c.mu.Lock()
	err := c.session.Login(raw)
	sid := c.session.ID()
	c.mu.Unlock()
	if err != nil {
		return err
	}
	logger.L.Info("user logged in", "session_id", sid)
	c.emit(Event{Kind: EventLoggedIn})
	return nil
}

// Logout forgets the user and clears the conversation.
func (c *Controller) Logout() {
	c.mu.Lock()
	sid := c.session.ID()
	c.session.Logout()
	wasPending := c.resetLocked()
	c.mu.Unlock()

	logger.L.Info("user logged out", "session_id", sid)
	c.afterReset(wasPending)
	c.emit(Event{Kind: EventLoggedOut})
}

// NewConversation clears the conversation and turns the pending indicator off.
// An ask still in flight completes in the background and its answer is dropped.
func (c *Controller) NewConversation() {
	c.mu.Lock()
	wasPending := c.resetLocked()
	c.mu.Unlock()
	c.afterReset(wasPending)
}

func (c *Controller) resetLocked() bool {
	wasPending := c.fsm.MustState() == StateSending
	if err := c.fsm.Fire(TriggerReset); err != nil {
		logger.L.Error("ask reset rejected", "error", err)
	}
	c.store.Clear()
	c.inflight = make(map[conversation.MessageID]bool)
	return wasPending
}

func (c *Controller) afterReset(wasPending bool) {
	if wasPending {
		c.emit(Event{Kind: EventPendingChanged, Pending: false})
	}
	c.emit(Event{Kind: EventConversationCleared})
}

// Send submits text as a question. Blank text or a logged-out session is silently ignored
// and returns (nil, nil). While another ask is in flight it returns ErrBusy without side effects.
//
// Otherwise the returned message is the appended answer. When the request failed that answer
// is FailureText and the returned error is the *transport.Error behind it.
func (c *Controller) Send(ctx context.Context, text string) (*conversation.Message, error) {
	question := strings.TrimSpace(text)

	c.mu.Lock()
	userID, ok := c.session.UserID()
	if question == "" || !ok {
		c.mu.Unlock()
		return nil, nil
	}
	if c.fsm.MustState() != StateIdle {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	epoch := c.store.Epoch()
	sid := c.session.ID().String()
	userMsg := c.store.AppendUser(question)
	if err := c.fsm.Fire(TriggerSend); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.mu.Unlock()

	log := logger.L.With("session_id", sid, "message_id", userMsg.ID)
	c.emit(Event{Kind: EventMessageAppended, Message: userMsg})
	c.emit(Event{Kind: EventPendingChanged, Pending: true})
	c.record(ctx, sid, epoch, userMsg)

	resp, askErr := c.backend.Ask(transport.WithSessionID(ctx, sid), userID, question)

	c.mu.Lock()
	if c.store.Epoch() != epoch {
		// the conversation was cleared meanwhile; the reset already took the FSM back to Idle
		c.mu.Unlock()
		log.Info("dropping answer for a cleared conversation", "error", askErr)
		return nil, askErr
	}
	var answer conversation.Message
	trigger := TriggerAnswered
	if askErr != nil {
		trigger = TriggerAskFailed
		answer = c.store.AppendAssistant(FailureText, nil, nil)
	} else {
		answer = c.store.AppendAssistant(resp.Answer, toSources(resp.Sources), toResponseID(resp.ResponseID))
	}
	if err := c.fsm.Fire(trigger); err != nil {
		log.Error("ask completion rejected", "trigger", trigger, "error", err)
	}
	c.mu.Unlock()

	c.emit(Event{Kind: EventPendingChanged, Pending: false})
	c.emit(Event{Kind: EventMessageAppended, Message: answer})
	c.record(ctx, sid, epoch, answer)
	if askErr != nil {
		log.Warn("ask failed", "error", askErr)
		c.emit(Event{Kind: EventTransportFailed, Op: "ask", Err: askErr})
		return &answer, askErr
	}
	log.Debug("answer received", "answer_id", answer.ID, "sources", len(answer.Sources), "feedback", answer.Feedback)
	return &answer, nil
}

// GiveFeedback rates the answer id. It only acts on answers whose feedback is Pending, or
// Failed (which is retried), and that have no submission under way; anything else is a no-op.
// A transport failure leaves the answer in Failed and is returned.
func (c *Controller) GiveFeedback(ctx context.Context, id conversation.MessageID, isHelpful bool) error {
	c.mu.Lock()
	msg, ok := c.store.Get(id)
	if !ok || msg.ResponseID == nil || !msg.AcceptsFeedback() || c.inflight[id] || !c.session.LoggedIn() {
		c.mu.Unlock()
		return nil
	}
	epoch := c.store.Epoch()
	sid := c.session.ID().String()
	if msg.Feedback == conversation.FeedbackFailed {
		if err := c.store.RetryFeedback(id); err != nil {
			c.mu.Unlock()
			return err
		}
		msg, _ = c.store.Get(id)
	}
	c.inflight[id] = true
	c.mu.Unlock()

	log := logger.L.With("session_id", sid, "message_id", id, "response_id", *msg.ResponseID)
	c.emit(Event{Kind: EventFeedbackChanged, Message: msg, Helpful: isHelpful})

	sendErr := c.backend.SubmitFeedback(transport.WithSessionID(ctx, sid), int64(*msg.ResponseID), isHelpful)

	c.mu.Lock()
	if c.store.Epoch() != epoch {
		c.mu.Unlock()
		log.Info("dropping feedback result for a cleared conversation", "error", sendErr)
		return sendErr
	}
	delete(c.inflight, id)
	var stateErr error
	if sendErr != nil {
		stateErr = c.store.MarkFeedbackFailed(id)
	} else {
		stateErr = c.store.RecordFeedback(id, isHelpful)
	}
	updated, _ := c.store.Get(id)
	c.mu.Unlock()

	if stateErr != nil {
		log.Error("feedback transition rejected", "error", stateErr)
	}
	c.emit(Event{Kind: EventFeedbackChanged, Message: updated, Helpful: isHelpful})
	if c.recorder != nil {
		if err := c.recorder.RecordFeedback(ctx, sid, epoch, updated); err != nil {
			log.Warn("failed to record feedback", "error", err)
		}
	}
	if sendErr != nil {
		log.Warn("feedback failed", "error", sendErr)
		c.emit(Event{Kind: EventTransportFailed, Op: "feedback", Err: sendErr, Message: updated, Helpful: isHelpful})
		return sendErr
	}
	log.Info("feedback recorded", "helpful", isHelpful)
	return nil
}

func (c *Controller) emit(e Event) {
	if c.sink != nil {
		c.sink(e)
	}
}

func (c *Controller) record(ctx context.Context, sid string, epoch uint64, m conversation.Message) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordMessage(ctx, sid, epoch, m); err != nil {
		logger.L.Warn("failed to record message", "session_id", sid, "message_id", m.ID, "error", err)
	}
}

func toSources(in []transport.Source) []conversation.Source {
	if len(in) == 0 {
		return nil
	}
	out := make([]conversation.Source, len(in))
	for i, s := range in {
		out[i] = conversation.Source{Kind: s.Type, ID: s.ID, Title: s.Title}
	}
	return out
}

func toResponseID(in *int64) *conversation.ResponseID {
	if in == nil {
		return nil
	}
	r := conversation.ResponseID(*in)
	return &r
}
