// Package presenter abstracts the destination quiz messages are posted to.
//
// The session controller talks to a Channel: it sends a message per question
// and edits that message as the countdown ticks and when the answer is
// revealed. Memory keeps per-channel transcripts so any transport can re-read
// the current state, and transports can layer fan-out on top (see
// transport/websocket).
package presenter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMessageNotFound is returned by Edit when the referenced message does not
// exist in the channel transcript.
var ErrMessageNotFound = errors.New("message not found")

// MessageRef identifies a previously sent message within a channel.
type MessageRef string

// Message is one entry in a channel transcript.
type Message struct {
	Ref     MessageRef `json:"ref"`
	Text    string     `json:"text"`
	Edited  bool       `json:"edited"`
	Posted  time.Time  `json:"posted"`
	Updated time.Time  `json:"updated"`
}

// Channel is a destination messages are posted to. Implementations must be
// safe for concurrent use by multiple sessions.
type Channel interface {
	// Send posts a new message to the channel identified by key and returns
	// a reference usable with Edit.
	Send(ctx context.Context, key, text string) (MessageRef, error)
	// Edit replaces the text of a previously sent message.
	Edit(ctx context.Context, key string, ref MessageRef, text string) error
}

// Memory is an in-memory Channel keeping a transcript per channel key.
type Memory struct {
	mu          sync.RWMutex
	transcripts map[string][]*Message
}

// NewMemory creates an empty in-memory channel.
func NewMemory() *Memory {
	return &Memory{
		transcripts: make(map[string][]*Message),
	}
}

// Send appends a new message to the channel transcript.
func (m *Memory) Send(ctx context.Context, key, text string) (MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := time.Now()
	msg := &Message{
		Ref:     MessageRef(uuid.New().String()),
		Text:    text,
		Posted:  now,
		Updated: now,
	}

	m.mu.Lock()
	m.transcripts[key] = append(m.transcripts[key], msg)
	m.mu.Unlock()

	return msg.Ref, nil
}

// Edit updates the text of an existing message in place.
func (m *Memory) Edit(ctx context.Context, key string, ref MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.transcripts[key] {
		if msg.Ref == ref {
			msg.Text = text
			msg.Edited = true
			msg.Updated = time.Now()
			return nil
		}
	}
	return fmt.Errorf("channel %s: %w", key, ErrMessageNotFound)
}

// Transcript returns a copy of the messages posted to the channel, oldest
// first. An unknown key yields an empty transcript.
func (m *Memory) Transcript(key string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := make([]Message, 0, len(m.transcripts[key]))
	for _, msg := range m.transcripts[key] {
		msgs = append(msgs, *msg)
	}
	return msgs
}

// Clear drops the transcript for a channel.
func (m *Memory) Clear(key string) {
	m.mu.Lock()
	delete(m.transcripts, key)
	m.mu.Unlock()
}
