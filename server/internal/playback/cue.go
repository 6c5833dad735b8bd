package playback

// Cue is what a render pass asks of the player.
type Cue struct {
	Source    string
	StartTime float64
}

// SeekFor returns the position a render pass should seek to, or nil to leave
// playback where it is. Only a new source honours StartTime; re-rendering the
// same source never seeks, so a paused position survives.
func SeekFor(previousSource string, next Cue) *float64 {
	if next.Source == previousSource {
		return nil
	}
	if next.StartTime > 0 {
		t := next.StartTime
		return &t
	}
	return nil
}
