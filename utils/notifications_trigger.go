package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"streetLearnAPI/internal/types/deadline"
	"streetLearnAPI/internal/types/notification"
)

// Broadcaster is the slice of the notification service the triggers
// need, so they don't pull in the whole services package.
type Broadcaster interface {
	Broadcast(ctx context.Context, push notification.Push, exclude *uuid.UUID)
}

// ChatMessagePosted pushes a new chat message to everyone except the
// sender. All chat pushes share one tag so the device shows only the
// latest message instead of a pile.
func ChatMessagePosted(notifier Broadcaster, senderID uuid.UUID, role, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier.Broadcast(ctx, notification.Push{
		Title: role,
		Body:  TruncateBody(text, 120),
		Tag:   "group_chat",
		Data:  map[string]string{"type": "chat_message"},
	}, &senderID)
}

// DeadlineCreated announces a new deadline to everyone except its
// creator, on the same tag the daily reminders will later reuse.
func DeadlineCreated(notifier Broadcaster, d deadline.Deadline) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	notifier.Broadcast(ctx, notification.Push{
		Title: fmt.Sprintf("New deadline from %s", d.CreatorRole),
		Body:  d.Title,
		Tag:   fmt.Sprintf("deadline_%s", d.ID),
		Data: map[string]string{
			"deadline_id": d.ID.String(),
			"type":        "deadline_created",
		},
	}, &d.CreatedBy)
}

// TruncateBody trims push bodies to fit the notification shade,
// cutting on rune boundaries so multibyte text is never mangled.
func TruncateBody(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}
