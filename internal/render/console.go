package render

import (
	"fmt"
	"math"

	"github.com/relabs-tech/orientation_panel/internal/panel"
)

type consoleLine struct {
	name   string
	angles [3]float64
	shown  [3]bool
}

// ConsoleRenderer prints one line per displayed source on every frame,
// in the style of the console subscriber:
//
//	[POSE] /imu/left  ROLL= 12.30  PITCH= -4.10  YAW=171.00
//
// Axes hidden by the settings print as blanks so columns stay aligned.
type ConsoleRenderer struct {
	lines []consoleLine
}

func NewConsoleRenderer() *ConsoleRenderer {
	return &ConsoleRenderer{}
}

func (r *ConsoleRenderer) BeginFrame() {
	r.lines = r.lines[:0]
}

func (r *ConsoleRenderer) DrawLabel(sourceIndex int, name string, colorIndex int) {
	for len(r.lines) <= sourceIndex {
		r.lines = append(r.lines, consoleLine{})
	}
	r.lines[sourceIndex].name = name
}

func (r *ConsoleRenderer) DrawIndicator(axis panel.Axis, sourceIndex int, angleDegrees float64, colorIndex int) {
	for len(r.lines) <= sourceIndex {
		r.lines = append(r.lines, consoleLine{})
	}
	if axis < 0 || int(axis) > 2 || math.IsNaN(angleDegrees) {
		return
	}
	r.lines[sourceIndex].angles[axis] = angleDegrees
	r.lines[sourceIndex].shown[axis] = true
}

func (r *ConsoleRenderer) EndFrame() {
	for _, line := range r.lines {
		fmt.Printf("[POSE] %-20s", line.name)
		for _, a := range panel.Axes {
			if line.shown[a] {
				fmt.Printf("  %s=%7.2f", axisTag(a), line.angles[a])
			} else {
				fmt.Printf("  %s=   --  ", axisTag(a))
			}
		}
		fmt.Println()
	}
}

func (r *ConsoleRenderer) Close() error { return nil }

func axisTag(a panel.Axis) string {
	switch a {
	case panel.AxisRoll:
		return "ROLL "
	case panel.AxisPitch:
		return "PITCH"
	case panel.AxisYaw:
		return "YAW  "
	default:
		return "?"
	}
}
