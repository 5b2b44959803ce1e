package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comigor/helpdesk-go/internal/config"
	"github.com/comigor/helpdesk-go/internal/controller"
	"github.com/comigor/helpdesk-go/internal/conversation"
	"github.com/comigor/helpdesk-go/internal/transport"
)

type fakeBackend struct {
	mu          sync.Mutex
	answer      transport.AskResponse
	askErr      error
	feedbackErr error
	questions   []string
	ratings     []bool
	// when set, Ask signals started and then waits for release
	started chan struct{}
	release chan struct{}
}

func (f *fakeBackend) Ask(_ context.Context, _ int64, question string) (transport.AskResponse, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	started, release := f.started, f.release
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answer, f.askErr
}

func (f *fakeBackend) SubmitFeedback(_ context.Context, _ int64, isHelpful bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings = append(f.ratings, isHelpful)
	return f.feedbackErr
}

type harness struct {
	t       *testing.T
	backend *fakeBackend
	ctrl    *controller.Controller
	events  chan controller.Event
	model   Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rid := int64(99)
	b := &fakeBackend{answer: transport.AskResponse{
		Answer:     "Redemarrez le poste",
		Sources:    []transport.Source{{Type: "ticket", ID: 7, Title: "VPN"}},
		ResponseID: &rid,
	}}
	events := make(chan controller.Event, 256)
	ctrl := controller.New(b, controller.WithEventSink(EventSink(events)))
	ui := config.UIConfig{Theme: config.ThemeMinimal, QuickActions: []string{"Mot de passe", "Imprimante"}}
	return &harness{t: t, backend: b, ctrl: ctrl, events: events, model: New(context.Background(), ctrl, events, ui)}
}

// press feeds msg to the model and returns the resulting command.
func (h *harness) press(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *harness) typeText(s string) {
	h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

// run executes cmd in place of the Bubble Tea runtime, delivers queued controller events,
// then the message cmd returned.
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	msg := cmd()
	h.drain()
	if msg != nil {
		h.press(msg)
	}
}

func (h *harness) drain() {
	for {
		select {
		case e := <-h.events:
			h.press(eventMsg(e))
		default:
			return
		}
	}
}

func (h *harness) login() {
	h.typeText("42")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	h.drain()
	require.Equal(h.t, screenChat, h.model.screen)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.model.View(), textLoginPrompt)

	h.typeText("abc")
	h.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, screenLogin, h.model.screen)
	assert.Contains(t, h.model.View(), textLoginInvalid)
	assert.False(t, h.ctrl.Snapshot().LoggedIn)

	h.model.login.Reset()
	h.login()
	view := h.model.View()
	assert.Contains(t, view, "Utilisateur #42")
	assert.Contains(t, view, textLoginOK)
	assert.Contains(t, view, textWelcomeTitle)
}

func TestSendShowsAnswerWithSourcesAndFeedbackPrompt(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.typeText("Mon VPN ne marche pas")
	cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, h.model.input.Value())
	h.run(cmd)

	assert.Equal(t, []string{"Mon VPN ne marche pas"}, h.backend.questions)
	view := h.model.View()
	assert.Contains(t, view, "Mon VPN ne marche pas")
	assert.Contains(t, view, "Redemarrez")
	assert.Contains(t, view, "ticket #7: VPN")
	assert.Contains(t, view, textFeedbackAsk)
	assert.NotContains(t, view, textWelcomeTitle)
	assert.NotContains(t, view, textTyping)
}

func TestBlankInputIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.typeText("   ")
	cmd := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, h.backend.questions)
}

func TestSendFailureShowsToastAndFailureText(t *testing.T) {
	h := newHarness(t)
	h.backend.askErr = &transport.Error{Op: "ask", StatusCode: 500, Err: errors.New("boom")}
	h.login()

	h.typeText("Bonjour")
	h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	view := h.model.View()
	assert.Contains(t, view, textServerError)
	assert.Contains(t, view, "Désolé")
	assert.NotContains(t, view, textFeedbackAsk)
}

func TestFeedbackKeys(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.typeText("Bonjour")
	h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	h.run(h.press(tea.KeyMsg{Type: tea.KeyCtrlB}))
	assert.Equal(t, []bool{false}, h.backend.ratings)
	view := h.model.View()
	assert.Contains(t, view, textFeedbackBad)
	assert.Contains(t, view, textFeedbackThanks)
	assert.NotContains(t, view, textFeedbackAsk)

	// recorded answers no longer take feedback
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyCtrlT}))
	assert.Len(t, h.backend.ratings, 1)
}

func TestFeedbackFailureCanBeRetried(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.typeText("Bonjour")
	h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	h.backend.feedbackErr = errors.New("offline")
	h.run(h.press(tea.KeyMsg{Type: tea.KeyCtrlT}))
	view := h.model.View()
	assert.Contains(t, view, textFeedbackError)
	assert.Contains(t, view, textFeedbackRetry)

	h.backend.feedbackErr = nil
	h.run(h.press(tea.KeyMsg{Type: tea.KeyCtrlT}))
	assert.Equal(t, []bool{true, true}, h.backend.ratings)
	assert.Contains(t, h.model.View(), textFeedbackGood)
}

func TestTabSelectsOlderAnswer(t *testing.T) {
	h := newHarness(t)
	h.login()
	for _, q := range []string{"un", "deux"} {
		h.typeText(q)
		h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))
	}
	assert.Equal(t, conversation.MessageID(4), h.model.feedbackTarget())

	h.press(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, conversation.MessageID(2), h.model.feedbackTarget())

	h.run(h.press(tea.KeyMsg{Type: tea.KeyCtrlT}))
	first, _ := h.ctrl.Store().Get(2)
	second, _ := h.ctrl.Store().Get(4)
	assert.Equal(t, conversation.FeedbackRecorded, first.Feedback)
	assert.Equal(t, conversation.FeedbackPending, second.Feedback)

	// only one rateable answer left, so the target falls back to it
	assert.Equal(t, conversation.MessageID(4), h.model.feedbackTarget())
}

func TestQuickAction(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.run(h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true}))
	assert.Equal(t, []string{"Imprimante"}, h.backend.questions)

	// the welcome block is gone, so shortcuts no longer fire
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true}))
}

func TestNewConversationAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.typeText("Bonjour")
	h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))

	h.press(tea.KeyMsg{Type: tea.KeyCtrlN})
	h.drain()
	view := h.model.View()
	assert.Contains(t, view, textWelcomeTitle)
	assert.Contains(t, view, textNewChat)
	assert.Equal(t, 0, h.ctrl.Store().Len())

	h.press(tea.KeyMsg{Type: tea.KeyCtrlL})
	h.drain()
	assert.Equal(t, screenLogin, h.model.screen)
	assert.False(t, h.ctrl.Snapshot().LoggedIn)
	assert.Contains(t, h.model.View(), textLogoutOK)
}

func TestToastDismissal(t *testing.T) {
	h := newHarness(t)
	h.login()
	require.Len(t, h.model.toasts, 1)

	h.press(dismissToastMsg{id: h.model.toasts[0].id})
	assert.Empty(t, h.model.toasts)
	assert.NotContains(t, h.model.View(), textLoginOK)
}

func TestCtrlCQuits(t *testing.T) {
	h := newHarness(t)
	cmd := h.press(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestStartsOnChatWhenLoggedIn(t *testing.T) {
	events := make(chan controller.Event, 8)
	ctrl := controller.New(&fakeBackend{}, controller.WithEventSink(EventSink(events)))
	require.NoError(t, ctrl.Login("7"))

	m := New(context.Background(), ctrl, events, config.UIConfig{Theme: config.ThemeMinimal})
	assert.Equal(t, screenChat, m.screen)
	assert.True(t, m.input.Focused())
	assert.Contains(t, m.View(), "Utilisateur #7")
}

func TestEnterWhileSendIsStartingKeepsText(t *testing.T) {
	h := newHarness(t)
	h.login()

	h.typeText("first")
	first := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)

	// the send has not reached the controller yet
	h.typeText("second")
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, "second", h.model.input.Value())

	h.run(first)
	assert.False(t, h.model.sending)
	h.run(h.press(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.Equal(t, []string{"first", "second"}, h.backend.questions)
	assert.Empty(t, h.model.input.Value())
}

func TestBusySendGivesTextBack(t *testing.T) {
	h := newHarness(t)
	h.backend.started = make(chan struct{}, 1)
	h.backend.release = make(chan struct{})
	h.login()

	h.typeText("first")
	first := h.press(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, first)
	done := make(chan tea.Msg, 1)
	go func() { done <- first() }()
	<-h.backend.started

	second := h.model.startSend("second")
	h.press(second())
	assert.Equal(t, "second", h.model.input.Value())
	assert.Contains(t, h.model.View(), textBusy)

	close(h.backend.release)
	msg := <-done
	h.drain()
	h.press(msg)
	assert.False(t, h.model.sending)
	assert.Equal(t, []string{"first"}, h.backend.questions)
	assert.Contains(t, h.model.View(), "Redemarrez")
}

func TestEventSinkDropsWhenFull(t *testing.T) {
	ch := make(chan controller.Event, 1)
	sink := EventSink(ch)

	sink(controller.Event{Kind: controller.EventLoggedIn})
	sink(controller.Event{Kind: controller.EventConversationCleared})

	require.Len(t, ch, 1)
	assert.Equal(t, controller.EventLoggedIn, (<-ch).Kind)
}

func TestQuickActionWhileSendIsStarting(t *testing.T) {
	h := newHarness(t)
	h.login()

	first := h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}, Alt: true})
	require.NotNil(t, first)
	assert.Nil(t, h.press(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'2'}, Alt: true}))

	h.run(first)
	assert.Equal(t, []string{"Mot de passe"}, h.backend.questions)
}
