// Package panel implements the orientation panel core: the per-source
// state model, the settings projection consumed by an external editor,
// persisted-state handling, and the update/render cycle that turns
// incoming quaternion messages into indicator draws.
package panel

// Axis identifies one of the three Euler axes.
type Axis int

const (
	AxisRoll Axis = iota
	AxisPitch
	AxisYaw
)

// Axes in display order.
var Axes = []Axis{AxisRoll, AxisPitch, AxisYaw}

func (a Axis) String() string {
	switch a {
	case AxisRoll:
		return "roll"
	case AxisPitch:
		return "pitch"
	case AxisYaw:
		return "yaw"
	default:
		return "unknown"
	}
}

// SourceConfig holds the per-source panel settings. Created on the first
// enable of a previously unseen source with all show flags true; never
// deleted automatically, only overwritten.
type SourceConfig struct {
	Enabled   bool `json:"enabled"`
	ShowRoll  bool `json:"showRoll"`
	ShowPitch bool `json:"showPitch"`
	ShowYaw   bool `json:"showYaw"`
}

// Show reports the per-source show flag for one axis.
func (c SourceConfig) Show(a Axis) bool {
	switch a {
	case AxisRoll:
		return c.ShowRoll
	case AxisPitch:
		return c.ShowPitch
	case AxisYaw:
		return c.ShowYaw
	default:
		return false
	}
}

func (c SourceConfig) withShow(a Axis, v bool) SourceConfig {
	switch a {
	case AxisRoll:
		c.ShowRoll = v
	case AxisPitch:
		c.ShowPitch = v
	case AxisYaw:
		c.ShowYaw = v
	}
	return c
}

// DisplaySettings are the global per-axis toggles, independent of any
// source. A disabled axis has no indicator at all, regardless of per-source
// show flags.
type DisplaySettings struct {
	RollEnabled  bool `json:"rollEnabled"`
	PitchEnabled bool `json:"pitchEnabled"`
	YawEnabled   bool `json:"yawEnabled"`
}

// Enabled reports the global toggle for one axis.
func (d DisplaySettings) Enabled(a Axis) bool {
	switch a {
	case AxisRoll:
		return d.RollEnabled
	case AxisPitch:
		return d.PitchEnabled
	case AxisYaw:
		return d.YawEnabled
	default:
		return false
	}
}

func (d DisplaySettings) withEnabled(a Axis, v bool) DisplaySettings {
	switch a {
	case AxisRoll:
		d.RollEnabled = v
	case AxisPitch:
		d.PitchEnabled = v
	case AxisYaw:
		d.YawEnabled = v
	}
	return d
}

// State is the whole persisted panel configuration. Sources is unordered
// for storage; order tracks source insertion so iteration stays
// deterministic (Go maps are not).
//
// All updates go through the WithX methods, which return a new State and
// never mutate the receiver. The single update loop owning the State swaps
// whole values, keeping every transition atomic.
type State struct {
	Sources map[string]SourceConfig `json:"sources"`
	Display DisplaySettings         `json:"displaySettings"`

	order []string
}

// DefaultState returns the panel defaults: no sources, all three axes
// displayed.
func DefaultState() State {
	return State{
		Sources: map[string]SourceConfig{},
		Display: DisplaySettings{RollEnabled: true, PitchEnabled: true, YawEnabled: true},
	}
}

// clone copies the map and order slice so WithX methods can edit freely.
func (s State) clone() State {
	out := s
	out.Sources = make(map[string]SourceConfig, len(s.Sources)+1)
	for name, cfg := range s.Sources {
		out.Sources[name] = cfg
	}
	out.order = append([]string(nil), s.order...)
	return out
}

// WithSourceEnabled upserts the config for name. An existing source keeps
// its show flags; a new one defaults them all to true. Purging any cached
// orientation for a disabled source is the caller's job and must happen
// together with this update.
func (s State) WithSourceEnabled(name string, enabled bool) State {
	out := s.clone()
	cfg, existed := out.Sources[name]
	if !existed {
		cfg = SourceConfig{ShowRoll: true, ShowPitch: true, ShowYaw: true}
		out.order = append(out.order, name)
	}
	cfg.Enabled = enabled
	out.Sources[name] = cfg
	return out
}

// WithDisplayAxis sets one of the three global axis toggles.
func (s State) WithDisplayAxis(a Axis, enabled bool) State {
	out := s.clone()
	out.Display = out.Display.withEnabled(a, enabled)
	return out
}

// WithSourceAxisShown flips one per-source show flag. Editing a source
// that has no config yet is a no-op and returns the state unchanged.
func (s State) WithSourceAxisShown(name string, a Axis, shown bool) State {
	cfg, ok := s.Sources[name]
	if !ok {
		return s
	}
	out := s.clone()
	out.Sources[name] = cfg.withShow(a, shown)
	return out
}

// EnabledSources returns the names of all enabled sources in insertion
// order.
func (s State) EnabledSources() []string {
	var names []string
	for _, name := range s.order {
		if s.Sources[name].Enabled {
			names = append(names, name)
		}
	}
	return names
}
