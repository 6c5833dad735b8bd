// Command replay runs a recorded click scenario through the coordinate engine
// and prints the resulting ledger as JSON.
//
//	go run ./server/cmd/replay -scenario server/cmd/replay/testdata/scenario.yaml
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"video-coords/server/internal/component"
	"video-coords/server/internal/emitter"
	"video-coords/server/internal/geometry"
	"video-coords/server/internal/ledger"
	"video-coords/server/internal/metrics"
	"video-coords/server/internal/models"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Scenario is one mounted video and the clicks made on it.
type Scenario struct {
	Source        string      `yaml:"source"`
	StartTime     float64     `yaml:"start_time"`
	FrameRate     float64     `yaml:"frame_rate"`
	Mode          string      `yaml:"mode"`
	RequirePaused bool        `yaml:"require_paused"`
	Start         time.Time   `yaml:"start"`
	Clicks        []ClickStep `yaml:"clicks"`
}

// ClickStep is a pointer event plus the element state sampled with it.
// AfterMs advances the scenario clock before the click is handled.
type ClickStep struct {
	Target      string  `yaml:"target"`
	ClientX     float64 `yaml:"client_x"`
	ClientY     float64 `yaml:"client_y"`
	Rect        Rect    `yaml:"rect"`
	VideoWidth  int     `yaml:"video_width"`
	VideoHeight int     `yaml:"video_height"`
	CurrentTime float64 `yaml:"current_time"`
	Paused      bool    `yaml:"paused"`
	AfterMs     int64   `yaml:"after_ms"`
}

type Rect struct {
	Left   float64 `yaml:"left"`
	Top    float64 `yaml:"top"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Outcome says what happened to one step.
type Outcome struct {
	Step     int    `json:"step"`
	Recorded bool   `json:"recorded"`
	Error    string `json:"error,omitempty"`
}

type Result struct {
	Clicks   []models.ClickEvent `json:"clicks"`
	Outcomes []Outcome           `json:"outcomes"`
	Metrics  metrics.Summary     `json:"metrics"`
}

func (s ClickStep) report() models.ClickReport {
	target := s.Target
	if target == "" {
		target = component.TargetVideo
	}
	return models.ClickReport{
		Target:      target,
		ClientX:     s.ClientX,
		ClientY:     s.ClientY,
		Rect:        models.Rect{Left: s.Rect.Left, Top: s.Rect.Top, Width: s.Rect.Width, Height: s.Rect.Height},
		VideoWidth:  s.VideoWidth,
		VideoHeight: s.VideoHeight,
		CurrentTime: s.CurrentTime,
		Paused:      s.Paused,
	}
}

// LoadScenario decodes a YAML scenario.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if s.Source == "" {
		return nil, errors.New("scenario has no source")
	}
	return &s, nil
}

// Replay mounts the scenario's source and feeds it every click in order.
// Steps that are rejected are reported, not fatal.
func Replay(ctx context.Context, log *zap.Logger, s *Scenario) (*Result, error) {
	mode, err := geometry.ParseMode(s.Mode)
	if err != nil {
		return nil, err
	}
	settings := component.Settings{Mode: mode, FrameRate: s.FrameRate, RequirePaused: s.RequirePaused}

	now := s.Start
	if now.IsZero() {
		now = time.Now()
	}
	clock := func() time.Time { return now }

	registry := component.NewRegistry(log, ledger.NewMemoryStore(), emitter.NewHub(log), func() component.Settings {
		return settings
	}).WithClock(clock)

	id := ledger.Identity{Viewer: "replay", Key: "scenario"}
	comp, _, err := registry.Mount(ctx, id, component.Config{Source: s.Source, StartTime: s.StartTime})
	if err != nil {
		return nil, err
	}

	result := &Result{Outcomes: make([]Outcome, 0, len(s.Clicks))}
	for i, step := range s.Clicks {
		now = now.Add(time.Duration(step.AfterMs) * time.Millisecond)
		outcome := Outcome{Step: i}
		if _, err := comp.HandleClick(ctx, component.ClickFromReport(step.report())); err != nil {
			outcome.Error = err.Error()
			log.Debug("Step rejected", zap.Int("step", i), zap.Error(err))
		} else {
			outcome.Recorded = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	result.Clicks = comp.Clicks()
	result.Metrics = metrics.Summarize(result.Clicks)
	return result, nil
}

func main() {
	path := flag.String("scenario", "", "YAML scenario file")
	verbose := flag.Bool("v", false, "log each step")
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		var err error
		if log, err = zap.NewDevelopment(); err != nil {
			panic("failed to initialize logger: " + err.Error())
		}
	}
	defer log.Sync()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -scenario file.yaml")
		os.Exit(2)
	}
	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	scenario, err := LoadScenario(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	result, err := Replay(context.Background(), log, scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
