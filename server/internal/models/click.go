package models

import "time"

// ClickEvent is one recorded click in native-resolution pixels. It is never
// modified once it has been appended to a ledger.
type ClickEvent struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	FrameTime  float64 `json:"frame_time"`
	FrameIndex *int    `json:"frame_index"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	UnixTime   int64   `json:"unix_time"`
}

// Clone returns a copy that shares no memory with e.
func (e ClickEvent) Clone() ClickEvent {
	if e.FrameIndex != nil {
		idx := *e.FrameIndex
		e.FrameIndex = &idx
	}
	return e
}

// ClickRecord is the persisted form of a ClickEvent. Seq is the event's
// position in its ledger and is unique per component.
type ClickRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Viewer       string `gorm:"size:64;not null;uniqueIndex:idx_click_records_seq"`
	ComponentKey string `gorm:"size:255;not null;uniqueIndex:idx_click_records_seq"`
	Seq          int    `gorm:"not null;uniqueIndex:idx_click_records_seq"`
	X            int
	Y            int
	FrameTime    float64
	FrameIndex   *int
	Width        int
	Height       int
	UnixTime     int64
	CreatedAt    time.Time
}

// NewClickRecord builds the row for the seq-th event of a component.
func NewClickRecord(viewer, key string, seq int, e ClickEvent) ClickRecord {
	e = e.Clone()
	return ClickRecord{
		Viewer:       viewer,
		ComponentKey: key,
		Seq:          seq,
		X:            e.X,
		Y:            e.Y,
		FrameTime:    e.FrameTime,
		FrameIndex:   e.FrameIndex,
		Width:        e.Width,
		Height:       e.Height,
		UnixTime:     e.UnixTime,
	}
}

// Event converts the row back into a ClickEvent.
func (r ClickRecord) Event() ClickEvent {
	return ClickEvent{
		X:          r.X,
		Y:          r.Y,
		FrameTime:  r.FrameTime,
		FrameIndex: r.FrameIndex,
		Width:      r.Width,
		Height:     r.Height,
		UnixTime:   r.UnixTime,
	}.Clone()
}

// ComponentMount records which source a component's persisted ledger belongs to.
type ComponentMount struct {
	Viewer       string `gorm:"primaryKey;size:64"`
	ComponentKey string `gorm:"primaryKey;size:255"`
	SourceDigest string `gorm:"size:64;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
