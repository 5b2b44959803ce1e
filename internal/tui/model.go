// Package tui is the terminal front end. It keeps no conversation state of its own: every
// frame is drawn from a controller snapshot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/comigor/helpdesk-go/internal/config"
	"github.com/comigor/helpdesk-go/internal/controller"
	"github.com/comigor/helpdesk-go/internal/conversation"
	"github.com/comigor/helpdesk-go/internal/logger"
)

const toastTTL = 4 * time.Second

// reserved rows around the transcript: header, toast, typing line, input, help
const chromeHeight = 6

type screen int

const (
	screenLogin screen = iota
	screenChat
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

type (
	eventMsg        controller.Event
	eventsClosedMsg struct{}
	dismissToastMsg struct{ id int }
	// sendDoneMsg reports that the send numbered seq returned from the controller.
	sendDoneMsg struct {
		seq  int
		text string
		err  error
	}
)

// Model is the Bubble Tea model of the client.
type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	events <-chan controller.Event

	theme        Theme
	quickActions []string

	screen    screen
	login     textinput.Model
	input     textinput.Model
	spin      spinner.Model
	viewport  viewport.Model
	render    renderer
	loginHint string

	toasts    []toast
	nextToast int
	// sending is set from the moment enter issues a send until that send returns,
	// which covers the gap before the controller reports Pending.
	sending bool
	sendSeq int
	// selected is the answer that feedback keys apply to; 0 means the latest rateable one.
	selected conversation.MessageID

	width  int
	height int
}

// New builds the model. events must carry everything the controller emits. A controller that
// is already logged in starts on the chat screen.
func New(ctx context.Context, ctrl *controller.Controller, events <-chan controller.Event, cfg config.UIConfig) Model {
	theme := ThemeByName(cfg.Theme)

	login := textinput.New()
	login.Prompt = textLoginPrompt
	login.Placeholder = "42"
	login.CharLimit = 19
	login.Focus()

	in := textinput.New()
	in.Placeholder = textInputHolder
	in.Prompt = "› "
	in.CharLimit = 0
	in.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		events:       events,
		theme:        theme,
		quickActions: cfg.QuickActions,
		screen:       screenLogin,
		login:        login,
		input:        in,
		spin:         s,
		viewport:     viewport.New(80, 20),
		width:        80,
		height:       20 + chromeHeight,
	}
	m.render = renderer{theme: theme, markdown: newMarkdown(theme.MarkdownStyle, 78), quickActions: cfg.QuickActions}
	if ctrl.Snapshot().LoggedIn {
		m.screen = screenChat
		m.login.Blur()
		m.input.Focus()
	}
	m.refresh()
	return m
}

// EventSink returns a controller sink feeding ch. Bubble Tea drains ch one event per update.
// The controller also emits from the update loop itself, so a full ch drops the event rather
// than block the only goroutine that drains it.
func EventSink(ch chan<- controller.Event) func(controller.Event) {
	return func(e controller.Event) {
		select {
		case ch <- e:
		default:
			logger.L.Warn("ui event queue full; dropping event", "kind", e.Kind.String())
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.events))
}

func listen(ch <-chan controller.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chromeHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.render.markdown = newMarkdown(m.theme.MarkdownStyle, msg.Width-2)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screenLogin {
			return m.updateLogin(msg)
		}
		return m.updateChat(msg)

	case eventMsg:
		cmd := m.handleEvent(controller.Event(msg))
		return m, tea.Batch(cmd, listen(m.events))

	case eventsClosedMsg:
		return m, nil

	case sendDoneMsg:
		cmd := m.handleSendDone(msg)
		return m, cmd

	case dismissToastMsg:
		for i, t := range m.toasts {
			if t.id == msg.id {
				m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
				break
			}
		}
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.screen == screenLogin {
		m.login, cmd = m.login.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type != tea.KeyEnter {
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return m, cmd
	}
	if err := m.ctrl.Login(m.login.Value()); err != nil {
		m.loginHint = textLoginInvalid
		cmd := m.pushToast(toastError, textLoginInvalid)
		return m, cmd
	}
	m.loginHint = ""
	m.screen = screenChat
	m.login.Blur()
	m.selected = 0
	m.refresh()
	cmd := tea.Batch(m.input.Focus(), m.pushToast(toastSuccess, textLoginOK))
	return m, cmd
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "enter":
		// input is disabled while an answer is pending
		if m.busy() {
			return m, nil
		}
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		cmd := m.startSend(text)
		return m, cmd

	case "ctrl+n":
		m.ctrl.NewConversation()
		m.selected = 0
		m.sending = false
		cmd := m.pushToast(toastSuccess, textNewChat)
		return m, cmd

	case "ctrl+l":
		m.ctrl.Logout()
		m.screen = screenLogin
		m.selected = 0
		m.sending = false
		m.input.Reset()
		m.input.Blur()
		m.login.Reset()
		cmd := tea.Batch(m.login.Focus(), m.pushToast(toastSuccess, textLogoutOK))
		return m, cmd

	case "tab", "shift+tab":
		m.moveSelection(key == "tab")
		m.refresh()
		return m, nil

	case "ctrl+t", "ctrl+b":
		id := m.feedbackTarget()
		if id == 0 {
			return m, nil
		}
		return m, m.feedbackCmd(id, key == "ctrl+t")

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if n, ok := quickActionIndex(msg); ok && m.input.Value() == "" && !m.busy() {
		if n < len(m.quickActions) && m.ctrl.Store().ShowsWelcome() {
			cmd := m.startSend(m.quickActions[n])
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// quickActionIndex maps alt+1..alt+9 to 0..8.
func quickActionIndex(msg tea.KeyMsg) (int, bool) {
	if !msg.Alt || msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	return int(r - '1'), true
}

func (m Model) busy() bool {
	return m.sending || m.ctrl.Pending()
}

func (m *Model) startSend(text string) tea.Cmd {
	m.sending = true
	m.sendSeq++
	seq, ctrl, ctx := m.sendSeq, m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.Send(ctx, text)
		if err != nil {
			logger.L.Debug("send finished with error", "error", err)
		}
		return sendDoneMsg{seq: seq, text: text, err: err}
	}
}

// handleSendDone re-enables input. A send the controller refused as busy gives the text back.
func (m *Model) handleSendDone(msg sendDoneMsg) tea.Cmd {
	if msg.seq == m.sendSeq {
		m.sending = false
	}
	if !errors.Is(msg.err, controller.ErrBusy) {
		return nil
	}
	if m.input.Value() == "" {
		m.input.SetValue(msg.text)
		m.input.CursorEnd()
	}
	return m.pushToast(toastError, textBusy)
}

func (m Model) feedbackCmd(id conversation.MessageID, helpful bool) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		if err := ctrl.GiveFeedback(ctx, id, helpful); err != nil {
			logger.L.Debug("feedback finished with error", "error", err)
		}
		return nil
	}
}

func (m *Model) handleEvent(e controller.Event) tea.Cmd {
	var cmd tea.Cmd
	switch e.Kind {
	case controller.EventPendingChanged:
		if e.Pending {
			cmd = m.spin.Tick
		}
	case controller.EventTransportFailed:
		text := textServerError
		if e.Op == "feedback" {
			text = textFeedbackError
		}
		cmd = m.pushToast(toastError, text)
	case controller.EventFeedbackChanged:
		if e.Message.Feedback == conversation.FeedbackRecorded {
			text := textFeedbackGood
			if !e.Message.Helpful {
				text = textFeedbackBad
			}
			cmd = m.pushToast(toastSuccess, text)
		}
	case controller.EventConversationCleared, controller.EventLoggedOut:
		m.selected = 0
	}
	m.refresh()
	return cmd
}

func (m *Model) pushToast(kind toastKind, text string) tea.Cmd {
	m.nextToast++
	id := m.nextToast
	m.toasts = append(m.toasts, toast{id: id, kind: kind, text: text})
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return dismissToastMsg{id: id} })
}

// rateable lists answers that still accept feedback, oldest first.
func rateable(msgs []conversation.Message) []conversation.MessageID {
	var ids []conversation.MessageID
	for _, msg := range msgs {
		if msg.ResponseID != nil && msg.AcceptsFeedback() {
			ids = append(ids, msg.ID)
		}
	}
	return ids
}

func (m Model) feedbackTarget() conversation.MessageID {
	ids := rateable(m.ctrl.Store().Messages())
	if len(ids) == 0 {
		return 0
	}
	for _, id := range ids {
		if id == m.selected {
			return id
		}
	}
	return ids[len(ids)-1]
}

func (m *Model) moveSelection(forward bool) {
	ids := rateable(m.ctrl.Store().Messages())
	if len(ids) == 0 {
		m.selected = 0
		return
	}
	cur := m.feedbackTarget()
	i := 0
	for j, id := range ids {
		if id == cur {
			i = j
		}
	}
	if forward {
		i = (i + 1) % len(ids)
	} else {
		i = (i - 1 + len(ids)) % len(ids)
	}
	m.selected = ids[i]
}

func (m *Model) refresh() {
	snap := m.ctrl.Snapshot()
	var target conversation.MessageID
	if len(rateable(snap.Messages)) > 1 {
		target = m.feedbackTarget()
	}
	m.viewport.SetContent(m.render.transcript(snap, target))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	var b strings.Builder
	header := textTitle
	if m.screen == screenChat {
		if snap := m.ctrl.Snapshot(); snap.LoggedIn {
			header += "  ·  " + fmt.Sprintf(textUserBadge, snap.UserID)
		}
	}
	b.WriteString(m.theme.Header.Render(header) + "\n")
	b.WriteString(m.toastLine() + "\n")

	if m.screen == screenLogin {
		b.WriteString("\n" + m.login.View() + "\n")
		if m.loginHint != "" {
			b.WriteString(m.theme.Failed.Render(m.loginHint) + "\n")
		}
		b.WriteString(m.theme.Hint.Render(textLoginHelp))
		return b.String()
	}

	b.WriteString(m.viewport.View() + "\n")
	if m.ctrl.Pending() {
		b.WriteString(m.spin.View() + " " + m.theme.Hint.Render(textTyping) + "\n")
	} else {
		b.WriteString("\n")
	}
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.theme.Hint.Render(textChatHelp))
	return b.String()
}

func (m Model) toastLine() string {
	parts := make([]string, 0, len(m.toasts))
	for _, t := range m.toasts {
		style := m.theme.ToastOK
		if t.kind == toastError {
			style = m.theme.ToastErr
		}
		parts = append(parts, style.Render(t.text))
	}
	return strings.Join(parts, " ")
}
