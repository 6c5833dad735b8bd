package models

// ComponentConfig is what the host sends when it renders a component.
// Width and Height size the rendered box only; coordinates are always reported
// in the video's native resolution.
type ComponentConfig struct {
	Src       string   `json:"src" binding:"required"`
	Width     *int     `json:"width,omitempty"`
	Height    *int     `json:"height,omitempty"`
	StartTime float64  `json:"start_time"`
	FPS       *float64 `json:"fps,omitempty"`
}

// ComponentView is returned by a render pass.
type ComponentView struct {
	Key    string       `json:"key"`
	Src    string       `json:"src"`
	Width  *int         `json:"width"`
	Height *int         `json:"height"`
	SeekTo *float64     `json:"seek_to"`
	State  string       `json:"state"`
	Clicks []ClickEvent `json:"clicks"`
}

// Rect is an element's bounding box as reported by getBoundingClientRect.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClickReport is a pointer event on the rendered video, plus the element state
// sampled at the same moment.
type ClickReport struct {
	Target      string  `json:"target"`
	ClientX     float64 `json:"client_x"`
	ClientY     float64 `json:"client_y"`
	Rect        Rect    `json:"rect"`
	VideoWidth  int     `json:"video_width"`
	VideoHeight int     `json:"video_height"`
	CurrentTime float64 `json:"current_time"`
	Paused      bool    `json:"paused"`
}

// MetadataReport is sent once the video element's metadata has loaded.
type MetadataReport struct {
	VideoWidth  int `json:"video_width" binding:"required"`
	VideoHeight int `json:"video_height" binding:"required"`
}
