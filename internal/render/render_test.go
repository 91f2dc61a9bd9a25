package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_panel/internal/panel"
)

func TestFrameRenderer_CollectsOneFrame(t *testing.T) {
	var got []Frame
	r := NewFrameRenderer(func(f Frame) { got = append(got, f) }, nil)

	r.BeginFrame()
	r.DrawLabel(0, "imu/left", 0)
	r.DrawIndicator(panel.AxisRoll, 0, 42.5, 0)
	r.DrawIndicator(panel.AxisYaw, 0, -90, 0)
	r.EndFrame()

	require.Len(t, got, 1)
	require.Len(t, got[0].Labels, 1)
	assert.Equal(t, "imu/left", got[0].Labels[0].Name)
	assert.Equal(t, Palette[0], got[0].Labels[0].Color)

	require.Len(t, got[0].Indicators, 2)
	assert.Equal(t, "roll", got[0].Indicators[0].Axis)
	assert.Equal(t, 42.5, got[0].Indicators[0].AngleDegrees)
	assert.Equal(t, "yaw", got[0].Indicators[1].Axis)
}

func TestFrameRenderer_BeginResetsFrame(t *testing.T) {
	var got []Frame
	r := NewFrameRenderer(func(f Frame) { got = append(got, f) }, nil)

	r.BeginFrame()
	r.DrawLabel(0, "a", 0)
	r.EndFrame()

	r.BeginFrame()
	r.EndFrame()

	require.Len(t, got, 2)
	assert.Empty(t, got[1].Labels)
}

func TestColorAt_OutOfRange(t *testing.T) {
	assert.Equal(t, "", colorAt(-1))
	assert.Equal(t, "", colorAt(panel.MaxSources))
	assert.NotEqual(t, "", colorAt(panel.MaxSources-1))
}

func TestImageRenderer_DrawsAndFlushes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 128, 64))
	flushed := 0
	r := &ImageRenderer{
		Dst:   img,
		Ink:   color.White,
		Blank: color.Black,
		Flush: func(image.Image) error { flushed++; return nil },
	}

	r.BeginFrame()
	r.DrawIndicator(panel.AxisRoll, 0, 0, 0)
	r.EndFrame()
	assert.Equal(t, 1, flushed)

	// A zero-degree roll is a horizontal line through the dial center.
	lit := 0
	for x := 0; x < 128; x++ {
		if red, _, _, _ := img.At(x, 37).RGBA(); red > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 20)
}

func TestConsoleRenderer_TracksLinesPerSource(t *testing.T) {
	r := NewConsoleRenderer()
	r.BeginFrame()
	r.DrawLabel(0, "imu", 0)
	r.DrawIndicator(panel.AxisRoll, 0, 12.3, 0)
	r.DrawIndicator(panel.AxisYaw, 0, -45, 0)

	require.Len(t, r.lines, 1)
	assert.Equal(t, "imu", r.lines[0].name)
	assert.True(t, r.lines[0].shown[panel.AxisRoll])
	assert.False(t, r.lines[0].shown[panel.AxisPitch])
	assert.Equal(t, -45.0, r.lines[0].angles[panel.AxisYaw])
}
