// Package events implements the per-session Event Bus: publish with a
// bounded, priority-aware retention window, replay from a
// given sequence number on subscribe, and independent cursors per
// subscriber.
//
// Each session owns one SessionBus. The Manager creates buses lazily and
// drives a per-bus heartbeat ticker so idle streams (no activity for 10s)
// still see traffic. Heartbeats are the only events Publish drops: a
// heartbeat that finds a subscriber's channel full is dropped for that
// subscriber only, recorded via the ErrorHandler/MetricsRecorder hooks.
// Every other kind waits until the subscriber's channel has room.
//
// Retention keeps the most recent 1024 events. When full, the oldest
// droppable event (heartbeats) is evicted first; state-delta, task-update,
// phase, message and terminal events are never evicted, per the Event Bus
// contract's replay guarantees, so the window grows past 1024 when it holds
// no heartbeat to evict.
package events
