// Package rosmsg locates orientation quaternions inside decoded JSON
// messages of the common ROS shapes (Imu, PoseStamped, Odometry,
// Transform, TransformStamped) without requiring a schema registry.
package rosmsg

import (
	"encoding/json"
	"math"

	"github.com/relabs-tech/orientation_panel/internal/orientation"
)

// Schemas the panel subscribes to. The catalog is filtered against this
// list; other message types on a topic are ignored.
var SupportedSchemas = []string{
	"sensor_msgs/Imu",
	"nav_msgs/Odometry",
}

// SchemaSupported reports whether the panel knows how to read messages of
// the given schema name.
func SchemaSupported(name string) bool {
	for _, s := range SupportedSchemas {
		if s == name {
			return true
		}
	}
	return false
}

// quaternionProbe names one known message shape and the field path leading
// to its quaternion. A nil path means the message itself is the quaternion.
type quaternionProbe struct {
	shape string
	path  []string
}

// Probes are tried in order and the first present field wins, so a message
// carrying both `orientation` and `pose.orientation` resolves through
// `orientation`. Order matters; do not sort.
var quaternionProbes = []quaternionProbe{
	{shape: "quaternion", path: nil},
	{shape: "imu", path: []string{"orientation"}},
	{shape: "pose", path: []string{"pose", "orientation"}},
	{shape: "odometry", path: []string{"pose", "pose", "orientation"}},
	{shape: "transform", path: []string{"rotation"}},
	{shape: "transform_stamped", path: []string{"transform", "rotation"}},
}

// ExtractQuaternion probes a decoded message for an embedded quaternion,
// trying each known shape in priority order. Returns false when no shape
// matches; malformed or foreign messages are silently ignored, never an
// error.
func ExtractQuaternion(msg map[string]any) (orientation.Quaternion, bool) {
	for _, probe := range quaternionProbes {
		if probe.path == nil {
			// Bare quaternion: the message itself must have numeric
			// x, y, z and w.
			if q, ok := bareQuaternion(msg); ok {
				return q, true
			}
			continue
		}
		if field, ok := fieldAt(msg, probe.path); ok {
			return readQuaternion(field), true
		}
	}
	return orientation.Quaternion{}, false
}

// fieldAt walks nested object fields; every step must be a JSON object.
func fieldAt(msg map[string]any, path []string) (map[string]any, bool) {
	cur := msg
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func bareQuaternion(obj map[string]any) (orientation.Quaternion, bool) {
	x, okX := numberAt(obj, "x")
	y, okY := numberAt(obj, "y")
	z, okZ := numberAt(obj, "z")
	w, okW := numberAt(obj, "w")
	if !okX || !okY || !okZ || !okW {
		return orientation.Quaternion{}, false
	}
	return orientation.Quaternion{X: x, Y: y, Z: z, W: w}, true
}

// readQuaternion reads the four components from a matched field. Missing
// or non-numeric components come back NaN so the converter can report the
// bad value and fall back to the zero pose.
func readQuaternion(obj map[string]any) orientation.Quaternion {
	at := func(key string) float64 {
		if v, ok := numberAt(obj, key); ok {
			return v
		}
		return math.NaN()
	}
	return orientation.Quaternion{X: at("x"), Y: at("y"), Z: at("z"), W: at("w")}
}

func numberAt(obj map[string]any, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
