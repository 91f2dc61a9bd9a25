package panel

import (
	"log"
	"time"

	"github.com/relabs-tech/orientation_panel/internal/orientation"
	"github.com/relabs-tech/orientation_panel/internal/rosmsg"
)

// MaxSources caps both the number of concurrently drawn (color-assigned)
// sources and the number of topic subscriptions. One constant on purpose:
// a source the panel cannot draw is not worth subscribing to either.
const MaxSources = 9

// Message is one delivered message: the source (topic) it arrived on and
// its decoded JSON payload.
type Message struct {
	Topic string
	Data  map[string]any
}

// Host is the panel's view of the hosting environment: it delivers
// message batches into Deliver and takes subscription instructions back.
// Subscribe with an empty list unsubscribes everything (used at teardown).
type Host interface {
	Subscribe(names []string) error
}

// Store persists the panel state whenever it changes.
type Store interface {
	Save(State) error
}

// Renderer is the presentation surface the update cycle draws on. One
// frame per refresh: BeginFrame, a DrawLabel and up to three
// DrawIndicator calls per displayed source, EndFrame. Close releases
// whatever the surface installed globally.
type Renderer interface {
	BeginFrame()
	DrawLabel(sourceIndex int, name string, colorIndex int)
	DrawIndicator(axis Axis, sourceIndex int, angleDegrees float64, colorIndex int)
	EndFrame()
	Close() error
}

// Panel is the update/render cycle. It owns the State and the cached
// per-source poses exclusively; the host must call Deliver and
// ApplySetting from a single goroutine, so no locking happens here and
// every state transition is a whole-value swap.
type Panel struct {
	host     Host
	store    Store
	renderer Renderer

	state   State
	catalog []TopicInfo

	// Last-known pose per enabled source, in insertion order. A source
	// whose message fails extraction keeps its previous entry; a disabled
	// source is purged immediately.
	poses     map[string]orientation.Pose
	poseOrder []string

	minRedraw time.Duration
	lastDraw  time.Time
	now       func() time.Time
}

// New builds a panel around a restored state and subscribes to whatever
// that state already has enabled.
func New(host Host, store Store, renderer Renderer, initial State, minRedraw time.Duration) *Panel {
	p := &Panel{
		host:      host,
		store:     store,
		renderer:  renderer,
		state:     initial,
		poses:     map[string]orientation.Pose{},
		minRedraw: minRedraw,
		now:       time.Now,
	}
	p.updateSubscriptions()
	return p
}

// State returns the current panel state.
func (p *Panel) State() State { return p.state }

// SetCatalog seeds the topic catalog before the first delivery so the
// settings tree has candidates to offer immediately. Later deliveries
// keep it current.
func (p *Panel) SetCatalog(c []TopicInfo) { p.catalog = c }

// Pose returns the cached pose for a source, if it has one.
func (p *Panel) Pose(name string) (orientation.Pose, bool) {
	pose, ok := p.poses[name]
	return pose, ok
}

// CandidateTopics filters the last seen catalog down to the schemas the
// panel can read. These are the sources offered in the settings tree.
func (p *Panel) CandidateTopics() []TopicInfo {
	var out []TopicInfo
	for _, t := range p.catalog {
		if rosmsg.SchemaSupported(t.Schema) {
			out = append(out, t)
		}
	}
	return out
}

// Settings projects the current state onto the settings tree.
func (p *Panel) Settings() SettingsNode {
	return BuildSettings(p.state, p.CandidateTopics())
}

// Deliver processes one batch of messages. Messages from sources that are
// not enabled are dropped (they can still be in flight right after a
// disable); the rest run through extraction and conversion,
// last-write-wins per source within the batch. done is invoked exactly
// once, even for an empty or fully dropped batch.
func (p *Panel) Deliver(batch []Message, catalog []TopicInfo, done func()) {
	if catalog != nil {
		p.catalog = catalog
	}

	updated := false
	for _, m := range batch {
		cfg, ok := p.state.Sources[m.Topic]
		if !ok || !cfg.Enabled {
			continue
		}
		q, ok := rosmsg.ExtractQuaternion(m.Data)
		if !ok {
			// No resolvable quaternion: hold the last-known pose for
			// this source rather than blanking its display.
			continue
		}
		p.setPose(m.Topic, orientation.QuaternionToPose(q))
		updated = true
	}

	if updated {
		p.render(false)
	}
	if done != nil {
		done()
	}
}

// ApplySetting handles one edit coming back from the settings editor as a
// (path, value) pair: ("topics", name) toggles a source, ("topics", name,
// showFlag) flips a per-source axis flag, ("display", axisFlag) flips a
// global toggle. Unknown paths are ignored.
func (p *Panel) ApplySetting(path []string, value bool) {
	switch {
	case len(path) == 2 && path[0] == "topics":
		name := path[1]
		p.state = p.state.WithSourceEnabled(name, value)
		if !value {
			// Purge synchronously with the disable so stale visuals
			// vanish instead of holding the last value.
			p.purge(name)
		}
		p.updateSubscriptions()

	case len(path) == 3 && path[0] == "topics":
		if a, ok := axisForSettingKey(path[2]); ok {
			p.state = p.state.WithSourceAxisShown(path[1], a, value)
		}

	case len(path) == 2 && path[0] == "display":
		if a, ok := axisForSettingKey(path[1]); ok {
			p.state = p.state.WithDisplayAxis(a, value)
		}

	default:
		log.Printf("panel: ignoring settings edit at %v", path)
		return
	}

	p.saveState()
	p.render(true)
}

// Close tears the panel down: unsubscribe everything, release the
// renderer's surface.
func (p *Panel) Close() error {
	if err := p.host.Subscribe(nil); err != nil {
		log.Printf("panel: unsubscribe on close: %v", err)
	}
	if p.renderer != nil {
		return p.renderer.Close()
	}
	return nil
}

func (p *Panel) setPose(name string, pose orientation.Pose) {
	if _, ok := p.poses[name]; !ok {
		p.poseOrder = append(p.poseOrder, name)
	}
	p.poses[name] = pose
}

func (p *Panel) purge(name string) {
	if _, ok := p.poses[name]; !ok {
		return
	}
	delete(p.poses, name)
	for i, n := range p.poseOrder {
		if n == name {
			p.poseOrder = append(p.poseOrder[:i], p.poseOrder[i+1:]...)
			break
		}
	}
}

func (p *Panel) updateSubscriptions() {
	names := p.state.EnabledSources()
	if len(names) > MaxSources {
		names = names[:MaxSources]
	}
	if err := p.host.Subscribe(names); err != nil {
		log.Printf("panel: subscribe %v: %v", names, err)
	}
}

func (p *Panel) saveState() {
	if p.store == nil {
		return
	}
	if err := p.store.Save(p.state); err != nil {
		log.Printf("panel: save state: %v", err)
	}
}

// render walks the live pose cache in insertion order and hands each
// included source to the renderer. Sources past MaxSources stay cached
// but get no display index, no color, no indicator. The redraw throttle
// only skips the draw pass; cached poses are never dropped. Settings
// edits force a draw so toggles take effect immediately.
func (p *Panel) render(force bool) {
	if p.renderer == nil {
		return
	}
	now := p.now()
	if !force && now.Sub(p.lastDraw) < p.minRedraw {
		return
	}
	p.lastDraw = now

	p.renderer.BeginFrame()
	idx := 0
	for _, name := range p.poseOrder {
		if idx >= MaxSources {
			break
		}
		pose := p.poses[name]
		cfg := p.state.Sources[name]

		p.renderer.DrawLabel(idx, name, idx)
		for _, a := range Axes {
			if !p.state.Display.Enabled(a) || !cfg.Show(a) {
				continue
			}
			p.renderer.DrawIndicator(a, idx, angleFor(pose, a), idx)
		}
		idx++
	}
	p.renderer.EndFrame()
}

func angleFor(pose orientation.Pose, a Axis) float64 {
	switch a {
	case AxisRoll:
		return pose.Roll
	case AxisPitch:
		return pose.Pitch
	case AxisYaw:
		return pose.Yaw
	default:
		return 0
	}
}
