package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/quizwire/quizwire/presenter"
	"github.com/quizwire/quizwire/quiz/data"
	"github.com/quizwire/quizwire/quiz/engine"
	"github.com/quizwire/quizwire/retry"
)

const (
	defaultSettleDelay  = 3 * time.Second
	defaultCleanupDelay = 200 * time.Millisecond
)

// Controller coordinates quiz sessions across channels. All exported methods
// are safe for concurrent use.
type Controller struct {
	timers    TimerRegistry
	questions QuestionSource
	settings  SettingsSource
	channel   presenter.Channel
	logger    *slog.Logger

	// settleDelay is the pause between reveal and next question; cleanupDelay
	// is the grace before retrying a stuck registry cleanup. delayUnit is one
	// countdown second for the timer-less fallback, shortened in tests.
	settleDelay  time.Duration
	cleanupDelay time.Duration
	delayUnit    time.Duration
	editRetry    retry.Policy

	mu       sync.RWMutex
	sessions map[string]*session
	errlogs  map[string][]ErrorEntry
}

// NewController creates a controller over the given collaborators.
func NewController(timers TimerRegistry, questions QuestionSource, settings SettingsSource, channel presenter.Channel, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		timers:       timers,
		questions:    questions,
		settings:     settings,
		channel:      channel,
		logger:       logger,
		settleDelay:  defaultSettleDelay,
		cleanupDelay: defaultCleanupDelay,
		delayUnit:    time.Second,
		editRetry:    retry.Default,
		sessions:     make(map[string]*session),
		errlogs:      make(map[string][]ErrorEntry),
	}
}

// Start begins a quiz in the channel. The current global settings are copied
// into the session, so later settings changes do not affect it.
func (c *Controller) Start(ctx context.Context, channelKey, quizName string) (Snapshot, error) {
	c.mu.RLock()
	existing, ok := c.sessions[channelKey]
	c.mu.RUnlock()
	if ok && existing.active {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionConflict, channelKey)
	}

	questions, err := c.questions.Questions(quizName)
	if err != nil {
		return Snapshot{}, err
	}

	settings := c.settings.Snapshot()
	selected, err := engine.SelectQuestions(questions, settings)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrEmptyQuizSet, quizName)
	}
	if len(selected) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrEmptyQuizSet, quizName)
	}

	sess := &session{
		channelKey: channelKey,
		quizName:   quizName,
		questions:  selected,
		active:     true,
		settings:   settings,
		startedAt:  time.Now(),
		stop:       make(chan struct{}),
	}

	c.mu.Lock()
	if existing, ok := c.sessions[channelKey]; ok && existing.active {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionConflict, channelKey)
	}
	c.sessions[channelKey] = sess
	snap := c.snapshotLocked(sess)
	c.mu.Unlock()

	c.logger.Info("quiz started", "channel", channelKey, "quiz", quizName,
		"questions", len(selected), "timer", settings.TimerDuration)
	go c.run(sess)

	return snap, nil
}

// Stop ends the channel's session and returns its final snapshot.
func (c *Controller) Stop(ctx context.Context, channelKey string) (Snapshot, error) {
	c.mu.Lock()
	sess, ok := c.sessions[channelKey]
	if !ok {
		c.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, channelKey)
	}
	sess.active = false
	sess.paused = false
	closeOnce(sess.stop)
	delete(c.sessions, channelKey)
	snap := c.snapshotLocked(sess)
	c.mu.Unlock()

	c.timers.CancelTimer(channelKey)
	c.logger.Info("quiz stopped", "channel", channelKey, "quiz", snap.QuizName,
		"asked", snap.Current, "total", snap.Total)
	return snap, nil
}

// Pause freezes the channel's session. Pausing an already-paused session is
// a successful no-op reported in the result.
func (c *Controller) Pause(ctx context.Context, channelKey string) (PauseResult, error) {
	c.mu.Lock()
	sess, ok := c.sessions[channelKey]
	if !ok || !sess.active {
		c.mu.Unlock()
		return PauseResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, channelKey)
	}
	if sess.paused {
		c.mu.Unlock()
		return PauseResult{AlreadyPaused: true}, nil
	}
	sess.paused = true
	c.mu.Unlock()

	timerPaused := c.timers.PauseTimer(channelKey)
	c.logger.Info("quiz paused", "channel", channelKey, "timer_paused", timerPaused)
	return PauseResult{TimerPaused: timerPaused}, nil
}

// Resume lifts a pause. Resuming a session that is not paused is a successful
// no-op reported in the result.
func (c *Controller) Resume(ctx context.Context, channelKey string) (ResumeResult, error) {
	c.mu.Lock()
	sess, ok := c.sessions[channelKey]
	if !ok || !sess.active {
		c.mu.Unlock()
		return ResumeResult{}, fmt.Errorf("%w: %s", ErrSessionNotFound, channelKey)
	}
	if !sess.paused {
		c.mu.Unlock()
		return ResumeResult{NotPaused: true}, nil
	}
	sess.paused = false
	c.mu.Unlock()

	timerResumed := c.timers.ResumeTimer(channelKey)
	c.logger.Info("quiz resumed", "channel", channelKey, "timer_resumed", timerResumed)
	return ResumeResult{TimerResumed: timerResumed}, nil
}

// Progress returns the channel's current session snapshot, including live
// timer status when a countdown is registered.
func (c *Controller) Progress(channelKey string) (Snapshot, error) {
	c.mu.RLock()
	sess, ok := c.sessions[channelKey]
	if !ok {
		c.mu.RUnlock()
		return Snapshot{}, fmt.Errorf("%w: %s", ErrSessionNotFound, channelKey)
	}
	snap := c.snapshotLocked(sess)
	c.mu.RUnlock()

	if status, ok := c.timers.Status(channelKey); ok {
		snap.Timer = &status
	}
	return snap, nil
}

// Sessions returns snapshots of every tracked session.
func (c *Controller) Sessions() []Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Snapshot, 0, len(c.sessions))
	for _, sess := range c.sessions {
		out = append(out, c.snapshotLocked(sess))
	}
	return out
}

// Errors returns the recorded error history for a channel, oldest first.
func (c *Controller) Errors(channelKey string) []ErrorEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ErrorEntry, len(c.errlogs[channelKey]))
	copy(out, c.errlogs[channelKey])
	return out
}

// Sweep removes finished sessions, cancels timers for sessions older than
// maxAge, and trims error histories. It returns the number of sessions
// removed.
func (c *Controller) Sweep(maxAge time.Duration) int {
	now := time.Now()
	var expired []string

	c.mu.Lock()
	for key, sess := range c.sessions {
		if !sess.active || now.Sub(sess.startedAt) > maxAge {
			sess.active = false
			sess.paused = false
			closeOnce(sess.stop)
			delete(c.sessions, key)
			expired = append(expired, key)
		}
	}
	for key, log := range c.errlogs {
		if len(log) > maxErrorLog {
			c.errlogs[key] = log[len(log)-maxErrorLog:]
		}
	}
	c.mu.Unlock()

	for _, key := range expired {
		c.timers.CancelTimer(key)
	}
	if len(expired) > 0 {
		c.logger.Info("session sweep", "removed", len(expired))
	}
	return len(expired)
}

// run is the per-session loop: present a question, wait out its countdown,
// then reveal and advance. It exits when the session ends for any reason.
func (c *Controller) run(sess *session) {
	ctx := context.Background()
	key := sess.channelKey

	for {
		c.mu.RLock()
		active := sess.active
		cursor := sess.cursor
		total := len(sess.questions)
		var question data.Question
		if cursor < total {
			question = sess.questions[cursor]
		}
		duration := sess.settings.TimerDuration
		c.mu.RUnlock()

		if !active || cursor >= total {
			return
		}

		text := formatQuestion(cursor+1, total, question)
		ref, err := c.channel.Send(ctx, key, text)
		if err != nil {
			c.recordError(key, fmt.Errorf("send question %d: %w", cursor+1, err))
			c.forceStop(key, sess, "Quiz stopped: the channel is unavailable.")
			return
		}

		timer, err := c.timers.StartTimer(ctx, key, duration, c.tickEditor(key, ref, text), nil)
		if err != nil {
			c.recordError(key, fmt.Errorf("question %d: %w", cursor+1, err))
			c.logger.Warn("timer unavailable, using plain delay", "channel", key, "error", err)
			if !c.fallbackWait(ctx, sess, key, ref, text, duration) {
				return
			}
		} else {
			// A pause issued between questions carries over to the new countdown.
			c.mu.RLock()
			paused := sess.paused
			c.mu.RUnlock()
			if paused {
				c.timers.PauseTimer(key)
			}

			<-timer.Done()
			if cbErr := timer.Err(); cbErr != nil {
				c.recordError(key, cbErr)
			}
			if !timer.Completed() {
				// Cancelled out from under the loop: the session is stopping.
				return
			}
		}

		if !c.revealAndAdvance(ctx, sess, ref, question) {
			return
		}
	}
}

// tickEditor returns the countdown callback that rewrites the question
// message with the remaining time each second.
func (c *Controller) tickEditor(key string, ref presenter.MessageRef, text string) func(remaining int) error {
	return func(remaining int) error {
		return c.channel.Edit(context.Background(), key, ref,
			fmt.Sprintf("%s\n\nTime remaining: %ds", text, remaining))
	}
}

// fallbackWait covers a question whose countdown could not be started: the
// message is annotated and the loop waits out the configured duration with a
// plain delay. It reports false when the session stopped during the wait.
func (c *Controller) fallbackWait(ctx context.Context, sess *session, key string, ref presenter.MessageRef, text string, seconds int) bool {
	notice := fmt.Sprintf("%s\n\nThe countdown display is unavailable. The answer will be revealed in %d seconds.", text, seconds)
	if err := c.editWithRetry(ctx, key, ref, notice); err != nil {
		c.recordError(key, fmt.Errorf("fallback notice: %w", err))
	}

	select {
	case <-sess.stop:
		return false
	case <-time.After(time.Duration(seconds) * c.delayUnit):
		return true
	}
}

// revealAndAdvance is the single shared step after a question's time is up,
// used by both the countdown path and the timer-less fallback. It reports
// whether the loop should continue with the next question.
func (c *Controller) revealAndAdvance(ctx context.Context, sess *session, ref presenter.MessageRef, question data.Question) bool {
	key := sess.channelKey

	// A leftover registration here means the countdown has not been observed
	// as finished yet; clear it before moving on.
	if !c.timers.Ready(key) {
		c.timers.CancelTimer(key)
	}

	if err := c.editWithRetry(ctx, key, ref, formatReveal(question)); err != nil {
		c.recordError(key, fmt.Errorf("reveal answer: %w", err))
	}

	c.mu.Lock()
	if !sess.active {
		c.mu.Unlock()
		return false
	}
	if sess.cursor >= len(sess.questions)-1 {
		sess.cursor = len(sess.questions)
		sess.active = false
		sess.paused = false
		closeOnce(sess.stop)
		quizName := sess.quizName
		total := len(sess.questions)
		delete(c.sessions, key)
		c.mu.Unlock()

		c.timers.CancelTimer(key)
		summary := fmt.Sprintf("Quiz '%s' complete! %d questions asked.", quizName, total)
		if _, err := c.channel.Send(ctx, key, summary); err != nil {
			c.recordError(key, fmt.Errorf("completion summary: %w", err))
		}
		c.logger.Info("quiz completed", "channel", key, "quiz", quizName, "questions", total)
		return false
	}
	sess.cursor++
	c.mu.Unlock()

	// Settle so the finished countdown is observed before the next start.
	select {
	case <-sess.stop:
		return false
	case <-time.After(c.settleDelay):
	}

	if !c.timers.Ready(key) {
		time.Sleep(c.cleanupDelay)
		c.timers.CancelTimer(key)
		if !c.timers.Ready(key) {
			c.recordError(key, fmt.Errorf("%w: registry not ready after cleanup", engine.ErrTimerConflict))
			c.forceStop(key, sess, "Quiz stopped: the question timer could not be cleared.")
			return false
		}
	}
	return true
}

// forceStop tears the session down from inside the run loop after an
// unrecoverable error.
func (c *Controller) forceStop(key string, sess *session, notice string) {
	c.mu.Lock()
	sess.active = false
	sess.paused = false
	closeOnce(sess.stop)
	if c.sessions[key] == sess {
		delete(c.sessions, key)
	}
	c.mu.Unlock()

	c.timers.CancelTimer(key)
	if notice != "" {
		if _, err := c.channel.Send(context.Background(), key, notice); err != nil {
			c.logger.Error("force stop notice undeliverable", "channel", key, "error", err)
		}
	}
	c.logger.Warn("session force stopped", "channel", key)
}

func (c *Controller) editWithRetry(ctx context.Context, key string, ref presenter.MessageRef, text string) error {
	return c.editRetry.Do(ctx, func(attempt int) error {
		return c.channel.Edit(ctx, key, ref, text)
	})
}

func (c *Controller) recordError(key string, err error) {
	c.logger.Error("session error", "channel", key, "error", err)

	c.mu.Lock()
	log := append(c.errlogs[key], ErrorEntry{Time: time.Now(), Message: err.Error()})
	if len(log) > maxErrorLog {
		log = log[len(log)-maxErrorLog:]
	}
	c.errlogs[key] = log
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked(sess *session) Snapshot {
	current := sess.cursor + 1
	if current > len(sess.questions) {
		current = len(sess.questions)
	}
	return Snapshot{
		ChannelKey: sess.channelKey,
		QuizName:   sess.quizName,
		Current:    current,
		Total:      len(sess.questions),
		Active:     sess.active,
		Paused:     sess.paused,
		Settings:   sess.settings.Clone(),
		StartedAt:  sess.startedAt,
	}
}

func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}

func formatQuestion(number, total int, q data.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d: %s", number, total, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "\n%c) %s", 'A'+i, opt)
	}
	return b.String()
}

func formatReveal(q data.Question) string {
	return fmt.Sprintf("Time's up! The answer was: %s\n\n%s", q.Answer, q.Text)
}
