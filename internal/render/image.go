// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/orientation_panel/internal/panel"
)

// ImageRenderer draws the panel frame into a framebuffer image, sized for
// the 128x64 SSD1306 but agnostic to the actual image type. Three dials
// left to right (roll, pitch, yaw); roll and pitch indicators are straight
// lines through the dial center, yaw is a ray from the center like a
// compass needle. Flush pushes the finished image to the device.
type ImageRenderer struct {
	Dst   draw.Image
	Ink   color.Color
	Blank color.Color
	Flush func(image.Image) error

	// Numeric readout is drawn for display index 0 only; a monochrome
	// 128x64 framebuffer has no room for more.
	vals    [3]float64
	haveVal [3]bool
}

func (r *ImageRenderer) BeginFrame() {
	draw.Draw(r.Dst, r.Dst.Bounds(), image.NewUniform(r.Blank), image.Point{}, draw.Src)
	r.vals = [3]float64{}
	r.haveVal = [3]bool{}
}

func (r *ImageRenderer) DrawLabel(sourceIndex int, name string, colorIndex int) {
	// No room for source names on the OLED.
}

func (r *ImageRenderer) DrawIndicator(axis panel.Axis, sourceIndex int, angleDegrees float64, colorIndex int) {
	cx, cy, radius := r.dialGeometry(axis)
	rad := angleDegrees / 180 * math.Pi

	switch axis {
	case panel.AxisRoll, panel.AxisPitch:
		// Line through the center; positive angles tilt the right end up.
		dx := math.Cos(rad) * float64(radius)
		dy := -math.Sin(rad) * float64(radius)
		r.line(cx-int(dx), cy-int(dy), cx+int(dx), cy+int(dy))
	case panel.AxisYaw:
		// Compass ray: 0° points up, positive angles turn clockwise.
		dx := math.Sin(rad) * float64(radius)
		dy := -math.Cos(rad) * float64(radius)
		r.line(cx, cy, cx+int(dx), cy+int(dy))
	}

	if sourceIndex == 0 && axis >= 0 && int(axis) < 3 {
		r.vals[axis] = angleDegrees
		r.haveVal[axis] = true
	}
}

func (r *ImageRenderer) EndFrame() {
	drawer := &font.Drawer{
		Dst:  r.Dst,
		Src:  image.NewUniform(r.Ink),
		Face: basicfont.Face7x13,
	}

	labels := [3]string{"ROLL", "PTCH", "YAW"}
	for i, a := range panel.Axes {
		cx, cy, radius := r.dialGeometry(a)
		r.ticks(cx, cy, radius)

		drawer.Dot = fixed.P(cx-14, 11)
		drawer.DrawString(labels[i])
		if r.haveVal[a] {
			drawer.Dot = fixed.P(cx-17, 63)
			drawer.DrawString(formatAngle(r.vals[a]))
		}
	}

	if r.Flush != nil {
		_ = r.Flush(r.Dst)
	}
}

func (r *ImageRenderer) Close() error { return nil }

// dialGeometry lays the three dials out across the framebuffer width.
func (r *ImageRenderer) dialGeometry(a panel.Axis) (cx, cy, radius int) {
	b := r.Dst.Bounds()
	w := b.Dx()
	cy = b.Min.Y + 37
	radius = 16
	cx = b.Min.X + w/6 + int(a)*(w/3)
	return cx, cy, radius
}

// ticks marks the four cardinal points of a dial.
func (r *ImageRenderer) ticks(cx, cy, radius int) {
	d := radius + 3
	r.Dst.Set(cx, cy-d, r.Ink)
	r.Dst.Set(cx, cy+d, r.Ink)
	r.Dst.Set(cx-d, cy, r.Ink)
	r.Dst.Set(cx+d, cy, r.Ink)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// line draws with integer Bresenham; good enough for a 1-bit panel.
func (r *ImageRenderer) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.Dst.Set(x0, y0, r.Ink)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func formatAngle(v float64) string {
	// basicfont is 7px wide; keep it to 6 characters.
	s := []byte("      ")
	neg := v < 0
	iv := int(math.Abs(v) + 0.5)
	pos := len(s) - 1
	for {
		s[pos] = byte('0' + iv%10)
		iv /= 10
		pos--
		if iv == 0 {
			break
		}
	}
	if neg && pos >= 0 {
		s[pos] = '-'
	}
	return string(s)
}
