// Package session runs quiz sessions, one per channel key.
//
// The Controller owns the per-channel state machine: a session is started
// with a snapshot of the global settings and a selected question list, then
// driven by a dedicated run loop goroutine that presents each question,
// waits out its countdown, reveals the answer, and advances. Pausing freezes
// the countdown in place; stopping cancels it and removes the session.
//
// When the timer registry cannot start a countdown for a question, the run
// loop degrades to a plain delay of the same length so the session still
// advances. Both paths share one reveal-and-advance step.
//
// Core Types:
//
// Controller coordinates sessions, the timer registry, the question source,
// and the presentation channel. Snapshot is the read-only view handed to
// callers; PauseResult and ResumeResult report idempotent outcomes.
//
// Usage:
//
//	ctrl := session.NewController(session.WrapRegistry(registry), repo, store, channel, logger)
//
//	snap, err := ctrl.Start(ctx, "channel-1", "geography")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Later
//	ctrl.Pause(ctx, "channel-1")
//	ctrl.Resume(ctx, "channel-1")
//	final, _ := ctrl.Stop(ctx, "channel-1")
//	_ = final
package session
