package websocket

import (
	"context"
	"time"

	"github.com/quizwire/quizwire/presenter"
)

// Fan-out event names.
const (
	EventMessagePosted = "message_posted"
	EventMessageEdited = "message_edited"
)

// Presenter decorates a presenter.Channel with hub fan-out: every message
// the quiz posts or edits is also pushed to the channel's WebSocket watchers.
type Presenter struct {
	next presenter.Channel
	hub  *Hub
}

// NewPresenter wraps next with fan-out through hub.
func NewPresenter(next presenter.Channel, hub *Hub) *Presenter {
	return &Presenter{next: next, hub: hub}
}

// Send posts through the wrapped channel and broadcasts the new message.
func (p *Presenter) Send(ctx context.Context, key, text string) (presenter.MessageRef, error) {
	ref, err := p.next.Send(ctx, key, text)
	if err != nil {
		return "", err
	}

	now := time.Now()
	p.hub.BroadcastEvent(key, EventMessagePosted, &presenter.Message{
		Ref:     ref,
		Text:    text,
		Posted:  now,
		Updated: now,
	}, nil)
	return ref, nil
}

// Edit updates through the wrapped channel and broadcasts the new text.
func (p *Presenter) Edit(ctx context.Context, key string, ref presenter.MessageRef, text string) error {
	if err := p.next.Edit(ctx, key, ref, text); err != nil {
		return err
	}

	p.hub.BroadcastEvent(key, EventMessageEdited, &presenter.Message{
		Ref:     ref,
		Text:    text,
		Edited:  true,
		Updated: time.Now(),
	}, nil)
	return nil
}
