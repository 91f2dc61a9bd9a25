package panel

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_panel/internal/orientation"
)

type fakeHost struct {
	calls [][]string
	err   error
}

func (f *fakeHost) Subscribe(names []string) error {
	f.calls = append(f.calls, append([]string(nil), names...))
	return f.err
}

func (f *fakeHost) last() []string {
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type fakeStore struct {
	saves []State
}

func (f *fakeStore) Save(s State) error {
	f.saves = append(f.saves, s)
	return nil
}

type indicatorCall struct {
	axis   Axis
	source int
	angle  float64
	color  int
}

type frameRecord struct {
	labels     []string
	indicators []indicatorCall
}

type recordingRenderer struct {
	current frameRecord
	frames  []frameRecord
	closed  bool
}

func (r *recordingRenderer) BeginFrame() { r.current = frameRecord{} }

func (r *recordingRenderer) DrawLabel(sourceIndex int, name string, colorIndex int) {
	r.current.labels = append(r.current.labels, name)
}

func (r *recordingRenderer) DrawIndicator(axis Axis, sourceIndex int, angleDegrees float64, colorIndex int) {
	r.current.indicators = append(r.current.indicators, indicatorCall{
		axis: axis, source: sourceIndex, angle: angleDegrees, color: colorIndex,
	})
}

func (r *recordingRenderer) EndFrame() { r.frames = append(r.frames, r.current) }

func (r *recordingRenderer) Close() error {
	r.closed = true
	return nil
}

func (r *recordingRenderer) lastFrame(t *testing.T) frameRecord {
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

// imuMsg builds an Imu-shaped message for the given pose.
func imuMsg(roll, pitch, yaw float64) map[string]any {
	q := orientation.FromPose(orientation.Pose{Roll: roll, Pitch: pitch, Yaw: yaw})
	return map[string]any{
		"orientation": map[string]any{"x": q.X, "y": q.Y, "z": q.Z, "w": q.W},
	}
}

func newTestPanel(state State) (*Panel, *fakeHost, *fakeStore, *recordingRenderer) {
	host := &fakeHost{}
	store := &fakeStore{}
	renderer := &recordingRenderer{}
	p := New(host, store, renderer, state, 0)
	return p, host, store, renderer
}

func TestDeliver_UpdatesPoseAndRenders(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	done := 0
	p.Deliver([]Message{{Topic: "a", Data: imuMsg(90, 0, 0)}}, nil, func() { done++ })

	assert.Equal(t, 1, done)
	pose, ok := p.Pose("a")
	require.True(t, ok)
	assert.InDelta(t, 90, pose.Roll, 1e-9)

	frame := renderer.lastFrame(t)
	assert.Equal(t, []string{"a"}, frame.labels)
	require.Len(t, frame.indicators, 3)
	assert.Equal(t, AxisRoll, frame.indicators[0].axis)
	assert.InDelta(t, 90, frame.indicators[0].angle, 1e-9)
	assert.Equal(t, 0, frame.indicators[0].color)
}

func TestDeliver_DropsMessagesFromDisabledSources(t *testing.T) {
	state := DefaultState().
		WithSourceEnabled("on", true).
		WithSourceEnabled("off", false)
	p, _, _, renderer := newTestPanel(state)

	done := 0
	p.Deliver([]Message{
		{Topic: "off", Data: imuMsg(10, 0, 0)},
		{Topic: "unknown", Data: imuMsg(10, 0, 0)},
	}, nil, func() { done++ })

	assert.Equal(t, 1, done, "completion fires even when everything is dropped")
	_, ok := p.Pose("off")
	assert.False(t, ok)
	_, ok = p.Pose("unknown")
	assert.False(t, ok)
	assert.Empty(t, renderer.frames, "nothing to draw, no frame")
}

func TestDeliver_LastWriteWinsWithinBatch(t *testing.T) {
	p, _, _, _ := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	p.Deliver([]Message{
		{Topic: "a", Data: imuMsg(10, 0, 0)},
		{Topic: "a", Data: imuMsg(20, 0, 0)},
	}, nil, func() {})

	pose, ok := p.Pose("a")
	require.True(t, ok)
	assert.InDelta(t, 20, pose.Roll, 1e-9)
}

func TestDeliver_ExtractionFailureHoldsLastKnownPose(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	p.Deliver([]Message{{Topic: "a", Data: imuMsg(45, 0, 0)}}, nil, func() {})
	require.Len(t, renderer.frames, 1)

	p.Deliver([]Message{{Topic: "a", Data: map[string]any{"junk": true}}}, nil, func() {})

	pose, ok := p.Pose("a")
	require.True(t, ok, "a failed extraction must not clear the display")
	assert.InDelta(t, 45, pose.Roll, 1e-9)
	assert.Len(t, renderer.frames, 1, "nothing changed, no redraw")
}

func TestDeliver_NonNumericComponentYieldsZeroPose(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	// The shape matches (orientation is present) but one component is
	// garbage; the source must show the zero pose, and no NaN may reach
	// the renderer where it would poison the whole frame.
	p.Deliver([]Message{{Topic: "a", Data: map[string]any{
		"orientation": map[string]any{"x": "oops", "y": 0.0, "z": 0.0, "w": 1.0},
	}}}, nil, func() {})

	pose, ok := p.Pose("a")
	require.True(t, ok)
	assert.Equal(t, orientation.Pose{}, pose)

	frame := renderer.lastFrame(t)
	require.Len(t, frame.indicators, 3)
	for _, ind := range frame.indicators {
		assert.False(t, math.IsNaN(ind.angle), "%s indicator is NaN", ind.axis)
	}
}

func TestDeliver_EmptyBatchAcksOnce(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState())

	done := 0
	p.Deliver(nil, nil, func() { done++ })
	assert.Equal(t, 1, done)
	assert.Empty(t, renderer.frames)
}

func TestApplySetting_DisablePurgesPose(t *testing.T) {
	p, host, store, _ := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	p.Deliver([]Message{{Topic: "a", Data: imuMsg(30, 0, 0)}}, nil, func() {})
	_, ok := p.Pose("a")
	require.True(t, ok)

	p.ApplySetting([]string{"topics", "a"}, false)

	_, ok = p.Pose("a")
	assert.False(t, ok, "stale pose must vanish with the disable, no new messages needed")
	assert.Empty(t, host.last(), "subscription list drops the source")
	require.NotEmpty(t, store.saves)
	assert.False(t, store.saves[len(store.saves)-1].Sources["a"].Enabled)
}

func TestApplySetting_EnableSubscribes(t *testing.T) {
	p, host, _, _ := newTestPanel(DefaultState())

	p.ApplySetting([]string{"topics", "odom"}, true)
	assert.Equal(t, []string{"odom"}, host.last())
}

func TestApplySetting_ShowFlagAndDisplayToggle(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))
	p.Deliver([]Message{{Topic: "a", Data: imuMsg(10, 20, 30)}}, nil, func() {})

	p.ApplySetting([]string{"topics", "a", "showPitch"}, false)
	p.ApplySetting([]string{"display", "yawEnabled"}, false)

	frame := renderer.lastFrame(t)
	require.Len(t, frame.indicators, 1)
	assert.Equal(t, AxisRoll, frame.indicators[0].axis)
}

func TestApplySetting_UnknownPathIgnored(t *testing.T) {
	p, _, store, _ := newTestPanel(DefaultState())
	before := p.State()

	p.ApplySetting([]string{"bogus"}, true)

	assert.Equal(t, before, p.State())
	assert.Empty(t, store.saves, "ignored edits are not persisted")
}

func TestRender_CapsAtNineSources(t *testing.T) {
	state := DefaultState()
	var batch []Message
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("src%d", i)
		state = state.WithSourceEnabled(name, true)
		batch = append(batch, Message{Topic: name, Data: imuMsg(float64(i), 0, 0)})
	}
	p, _, _, renderer := newTestPanel(state)

	p.Deliver(batch, nil, func() {})

	frame := renderer.lastFrame(t)
	assert.Len(t, frame.labels, MaxSources)
	for _, ind := range frame.indicators {
		assert.Less(t, ind.source, MaxSources)
		assert.Less(t, ind.color, MaxSources)
	}

	// The 10th source is cached, just not drawn.
	pose, ok := p.Pose("src9")
	require.True(t, ok)
	assert.InDelta(t, 9, pose.Roll, 1e-9)
	assert.NotContains(t, frame.labels, "src9")
}

func TestSubscriptions_CapAtNineTopics(t *testing.T) {
	state := DefaultState()
	for i := 0; i < 12; i++ {
		state = state.WithSourceEnabled(fmt.Sprintf("src%d", i), true)
	}
	_, host, _, _ := newTestPanel(state)

	require.NotEmpty(t, host.calls)
	assert.Len(t, host.calls[0], MaxSources)
}

func TestRender_ThrottleSkipsDrawButKeepsCache(t *testing.T) {
	p, _, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))
	p.minRedraw = 100 * time.Millisecond

	base := time.Unix(1000, 0)
	now := base
	p.now = func() time.Time { return now }

	p.Deliver([]Message{{Topic: "a", Data: imuMsg(10, 0, 0)}}, nil, func() {})
	require.Len(t, renderer.frames, 1)

	now = base.Add(10 * time.Millisecond)
	p.Deliver([]Message{{Topic: "a", Data: imuMsg(20, 0, 0)}}, nil, func() {})
	assert.Len(t, renderer.frames, 1, "within min spacing, no redraw")

	pose, _ := p.Pose("a")
	assert.InDelta(t, 20, pose.Roll, 1e-9, "skipped draw must not drop the update")

	now = base.Add(200 * time.Millisecond)
	p.Deliver([]Message{{Topic: "a", Data: imuMsg(30, 0, 0)}}, nil, func() {})
	require.Len(t, renderer.frames, 2)
	assert.InDelta(t, 30, renderer.frames[1].indicators[0].angle, 1e-9)
}

func TestDeliver_CatalogUpdatesCandidates(t *testing.T) {
	p, _, _, _ := newTestPanel(DefaultState())

	catalog := []TopicInfo{
		{Name: "imu", Schema: "sensor_msgs/Imu"},
		{Name: "scan", Schema: "sensor_msgs/LaserScan"},
	}
	p.Deliver(nil, catalog, func() {})

	candidates := p.CandidateTopics()
	require.Len(t, candidates, 1)
	assert.Equal(t, "imu", candidates[0].Name)
}

func TestClose_UnsubscribesAndReleasesRenderer(t *testing.T) {
	p, host, _, renderer := newTestPanel(DefaultState().WithSourceEnabled("a", true))

	require.NoError(t, p.Close())
	assert.Empty(t, host.last())
	assert.True(t, renderer.closed)
}
