// Package ledger keeps the ordered, append-only record of clicks for one
// component instance.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"

	"video-coords/server/internal/models"
)

// Identity is the key a ledger lives under: the viewer's session plus the
// caller-supplied component key.
type Identity struct {
	Viewer string
	Key    string
}

func (id Identity) String() string {
	return id.Viewer + "/" + id.Key
}

// Ledger is owned by a single component and is not safe for concurrent use;
// the owner serialises access.
type Ledger struct {
	events []models.ClickEvent
}

// New returns a ledger seeded with previously persisted events.
func New(events []models.ClickEvent) *Ledger {
	l := &Ledger{events: make([]models.ClickEvent, 0, len(events))}
	for _, e := range events {
		l.events = append(l.events, e.Clone())
	}
	return l
}

// Len is the number of recorded events, which is also the seq of the next one.
func (l *Ledger) Len() int {
	return len(l.events)
}

// Stamp prepares e for appending: its unix time is raised to the last
// recorded one if the wall clock stepped backwards.
func (l *Ledger) Stamp(e models.ClickEvent) models.ClickEvent {
	e = e.Clone()
	if n := len(l.events); n > 0 && e.UnixTime < l.events[n-1].UnixTime {
		e.UnixTime = l.events[n-1].UnixTime
	}
	return e
}

// Append records e after every existing event and returns a snapshot of the
// whole ledger in insertion order.
func (l *Ledger) Append(e models.ClickEvent) []models.ClickEvent {
	l.events = append(l.events, l.Stamp(e))
	return l.Snapshot()
}

// Snapshot returns a copy callers may keep or modify freely.
func (l *Ledger) Snapshot() []models.ClickEvent {
	out := make([]models.ClickEvent, len(l.events))
	for i, e := range l.events {
		out[i] = e.Clone()
	}
	return out
}

// SourceDigest identifies a video source without storing it; data URLs can be
// many megabytes.
func SourceDigest(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}
