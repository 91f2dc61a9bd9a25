// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package panel

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
)

// Persisted state is a JSON file. Loads are tolerant: the file may be
// missing, partial, or carry unknown keys, and whatever is present is
// deep-merged over the defaults so old or hand-edited files never crash
// the panel.

type partialSourceConfig struct {
	Enabled   *bool `json:"enabled"`
	ShowRoll  *bool `json:"showRoll"`
	ShowPitch *bool `json:"showPitch"`
	ShowYaw   *bool `json:"showYaw"`
}

type partialDisplaySettings struct {
	RollEnabled  *bool `json:"rollEnabled"`
	PitchEnabled *bool `json:"pitchEnabled"`
	YawEnabled   *bool `json:"yawEnabled"`
}

type partialState struct {
	Sources map[string]partialSourceConfig `json:"sources"`
	Display *partialDisplaySettings        `json:"displaySettings"`
}

// MergeState overlays a partial JSON document onto the default state.
// Missing fields keep their defaults; show flags of sources mentioned in
// the document default to true, matching first-enable behavior.
func MergeState(raw []byte) (State, error) {
	var p partialState
	if err := json.Unmarshal(raw, &p); err != nil {
		return DefaultState(), fmt.Errorf("decode panel state: %w", err)
	}

	s := DefaultState()
	if d := p.Display; d != nil {
		setIf(&s.Display.RollEnabled, d.RollEnabled)
		setIf(&s.Display.PitchEnabled, d.PitchEnabled)
		setIf(&s.Display.YawEnabled, d.YawEnabled)
	}

	// Sort names so restored insertion order is stable across runs.
	names := make([]string, 0, len(p.Sources))
	for name := range p.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := p.Sources[name]
		cfg := SourceConfig{ShowRoll: true, ShowPitch: true, ShowYaw: true}
		setIf(&cfg.Enabled, pc.Enabled)
		setIf(&cfg.ShowRoll, pc.ShowRoll)
		setIf(&cfg.ShowPitch, pc.ShowPitch)
		setIf(&cfg.ShowYaw, pc.ShowYaw)
		s.Sources[name] = cfg
		s.order = append(s.order, name)
	}
	return s, nil
}

func setIf(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// FileStore persists the panel state as JSON at Path.
type FileStore struct {
	Path string
}

// Load reads and merges the state file. A missing file is not an error:
// the defaults are returned. A corrupt file is logged and likewise falls
// back to defaults rather than refusing to start.
func (f FileStore) Load() State {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("panel: cannot read state file %s: %v", f.Path, err)
		}
		return DefaultState()
	}
	s, err := MergeState(raw)
	if err != nil {
		log.Printf("panel: %v, using defaults", err)
	}
	return s
}

// Save writes the full current state back to the file.
func (f FileStore) Save(s State) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode panel state: %w", err)
	}
	if err := os.WriteFile(f.Path, raw, 0o644); err != nil {
		return fmt.Errorf("write panel state: %w", err)
	}
	return nil
}
