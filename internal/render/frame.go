// Package render provides panel.Renderer implementations: a frame builder
// feeding the web view, a text renderer for the console, and a 1-bit
// image renderer for the OLED display.
package render

import (
	"github.com/relabs-tech/orientation_panel/internal/panel"
)

// Palette is the fixed 9-color source palette. Display index i gets
// Palette[i]; with panel.MaxSources == 9 every drawn source has a
// distinguishable color.
var Palette = [panel.MaxSources]string{
	"#4e79a7", "#f28e2b", "#e15759",
	"#76b7b2", "#59a14f", "#edc948",
	"#b07aa1", "#ff9da7", "#9c755f",
}

// LabelDraw is one legend entry of a frame.
type LabelDraw struct {
	SourceIndex int    `json:"sourceIndex"`
	Name        string `json:"name"`
	Color       string `json:"color"`
}

// IndicatorDraw is one indicator line of a frame: the axis dial it
// belongs on and the rotation to draw it at.
type IndicatorDraw struct {
	Axis         string  `json:"axis"`
	SourceIndex  int     `json:"sourceIndex"`
	AngleDegrees float64 `json:"angleDegrees"`
	Color        string  `json:"color"`
}

// Frame is one complete refresh of the panel, self-contained enough for
// a late-joining viewer to draw everything.
type Frame struct {
	Labels     []LabelDraw     `json:"labels"`
	Indicators []IndicatorDraw `json:"indicators"`
}

// FrameRenderer collects draw calls into a Frame and hands the finished
// frame to a sink on EndFrame. The sink owns fanout (websocket hub, file,
// test capture).
type FrameRenderer struct {
	frame   Frame
	sink    func(Frame)
	onClose func() error
}

// NewFrameRenderer builds a renderer around a sink. onClose may be nil.
func NewFrameRenderer(sink func(Frame), onClose func() error) *FrameRenderer {
	return &FrameRenderer{sink: sink, onClose: onClose}
}

func (r *FrameRenderer) BeginFrame() {
	r.frame = Frame{}
}

func (r *FrameRenderer) DrawLabel(sourceIndex int, name string, colorIndex int) {
	r.frame.Labels = append(r.frame.Labels, LabelDraw{
		SourceIndex: sourceIndex,
		Name:        name,
		Color:       colorAt(colorIndex),
	})
}

func (r *FrameRenderer) DrawIndicator(axis panel.Axis, sourceIndex int, angleDegrees float64, colorIndex int) {
	r.frame.Indicators = append(r.frame.Indicators, IndicatorDraw{
		Axis:         axis.String(),
		SourceIndex:  sourceIndex,
		AngleDegrees: angleDegrees,
		Color:        colorAt(colorIndex),
	})
}

func (r *FrameRenderer) EndFrame() {
	if r.sink != nil {
		r.sink(r.frame)
	}
}

func (r *FrameRenderer) Close() error {
	if r.onClose != nil {
		return r.onClose()
	}
	return nil
}

func colorAt(i int) string {
	if i < 0 || i >= len(Palette) {
		return ""
	}
	return Palette[i]
}
