package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"bandchat/feed"
	"bandchat/models"
)

// renderFeed lays out the loaded messages oldest first.
func renderFeed(conv *feed.Conversation, width int, now time.Time) string {
	msgs := conv.Store().Messages()
	if len(msgs) == 0 {
		return metaStyle.Render("no messages yet")
	}

	var b strings.Builder
	if conv.Cursor().HasMore() {
		b.WriteString(metaStyle.Render("· scroll up for older messages ·"))
		b.WriteString("\n\n")
	} else {
		b.WriteString(metaStyle.Render("· beginning of conversation ·"))
		b.WriteString("\n\n")
	}
	for i, m := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderMessage(conv, m, width, now))
	}
	return b.String()
}

func renderMessage(conv *feed.Conversation, m models.Message, width int, now time.Time) string {
	mine := conv.IsMine(m)

	name := m.SenderName
	if name == "" {
		name = m.SenderID
	}
	nameStyle := otherNameStyle
	if mine {
		name, nameStyle = "you", mineNameStyle
	}
	meta := fmt.Sprintf("#%d · %s", m.ID, relTime(m.SentAt, now))
	if mine && m.ReadCount > 0 {
		meta += fmt.Sprintf(" · seen by %d", m.ReadCount)
	}

	lines := []string{nameStyle.Render(name) + " " + metaStyle.Render(meta)}
	if preview := conv.ReplyPreview(m); preview != "" {
		lines = append(lines, quoteStyle.Render("↳ "+preview))
	}
	if m.Attachment != nil {
		lines = append(lines, attachStyle.Render(attachmentLabel(m)))
	}
	if body := strings.TrimSpace(m.Body); body != "" {
		style := lipgloss.NewStyle()
		if width > 0 {
			style = style.Width(width)
		}
		lines = append(lines, style.Render(body))
	}
	return strings.Join(lines, "\n")
}

func attachmentLabel(m models.Message) string {
	icon := "[file]"
	if m.Kind == models.KindImage {
		icon = "[image]"
	}
	label := icon + " " + m.Attachment.Name
	if m.Attachment.Size > 0 {
		label += " (" + humanize.Bytes(uint64(m.Attachment.Size)) + ")"
	}
	return label
}

func relTime(t, now time.Time) string {
	if t.IsZero() {
		return "unsent"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
