package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/comigor/helpdesk-go/internal/controller"
	"github.com/comigor/helpdesk-go/internal/conversation"
)

// newMarkdown builds the answer renderer; nil means plain text.
func newMarkdown(style string, width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

type renderer struct {
	theme        Theme
	markdown     *glamour.TermRenderer
	quickActions []string
}

// transcript draws the whole conversation, or the welcome placeholder when it is empty.
func (r renderer) transcript(snap controller.Snapshot, selected conversation.MessageID) string {
	if snap.Welcome {
		return r.welcome()
	}
	parts := make([]string, 0, len(snap.Messages))
	for _, m := range snap.Messages {
		parts = append(parts, r.message(m, m.ID == selected))
	}
	return strings.Join(parts, "\n\n")
}

func (r renderer) welcome() string {
	var b strings.Builder
	b.WriteString(r.theme.BotLabel.Render(textWelcomeTitle))
	b.WriteString("\n")
	b.WriteString(textWelcomeBody)
	for i, q := range r.quickActions {
		if i >= 9 {
			break
		}
		fmt.Fprintf(&b, "\n  %s  %s", r.theme.Hint.Render(fmt.Sprintf("alt+%d", i+1)), q)
	}
	return r.theme.Welcome.Render(b.String())
}

func (r renderer) message(m conversation.Message, selected bool) string {
	var b strings.Builder
	label := r.theme.UserLabel.Render(r.theme.UserName)
	if m.Role == conversation.RoleAssistant {
		label = r.theme.BotLabel.Render(r.theme.BotName)
	}
	b.WriteString(label + " " + r.theme.Time.Render(m.CreatedAt.Format("15:04")) + "\n")
	b.WriteString(r.body(m))

	if len(m.Sources) > 0 {
		lines := []string{textSources + " :"}
		for _, s := range m.Sources {
			lines = append(lines, "• "+s.String())
		}
		b.WriteString("\n" + r.theme.Sources.Render(strings.Join(lines, "\n")))
	}

	if line := r.feedback(m); line != "" {
		b.WriteString("\n" + line)
	}

	out := b.String()
	if selected {
		out = r.theme.Selected.Render(out)
	}
	return out
}

func (r renderer) body(m conversation.Message) string {
	if m.Role == conversation.RoleAssistant && r.markdown != nil {
		if out, err := r.markdown.Render(m.Text); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return r.theme.Text.Render(m.Text)
}

// feedback derives the rating affordance from the message's feedback state alone.
func (r renderer) feedback(m conversation.Message) string {
	switch m.Feedback {
	case conversation.FeedbackPending:
		return r.theme.Prompt.Render(textFeedbackAsk + "  " + textFeedbackKeys)
	case conversation.FeedbackRecorded:
		verdict := "👍"
		if !m.Helpful {
			verdict = "👎"
		}
		return r.theme.Thanks.Render(verdict + " " + textFeedbackThanks)
	case conversation.FeedbackFailed:
		return r.theme.Failed.Render(textFeedbackRetry + "  " + textFeedbackKeys)
	default:
		return ""
	}
}
