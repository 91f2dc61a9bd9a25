package orientation

import (
	"log"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation as received on the wire: x, y, z imaginary parts
// and w real part. Unit norm by convention, not enforced.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is the canonical representation of orientation for the panel:
// roll/pitch/yaw in degrees. Roll and yaw are in (-180, 180], pitch
// saturates at +/-90.
type Pose struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Source is anything that can provide poses over time: a simulated curve,
// a replay from file, a heading feed, etc.
type Source interface {
	Next() (Pose, error)
}

const degPerRad = 180.0 / math.Pi

// QuaternionToPose converts a quaternion to roll/pitch/yaw in degrees.
//
//	roll  = atan2(2(wx+yz), 1-2(x²+y²))
//	pitch = asin(2(wy-zx)), clamped to +/-90° when |2(wy-zx)| >= 1
//	yaw   = atan2(2(wz+xy), 1-2(y²+z²))
//
// A quaternion with any missing or non-numeric component (NaN/Inf)
// yields the zero pose; the bad value is logged, never returned as an
// error. NaN must not leak into the pose: renderers marshal and
// rasterize these angles and neither survives a NaN.
func QuaternionToPose(q Quaternion) Pose {
	if !isFinite(q.X) || !isFinite(q.Y) || !isFinite(q.Z) || !isFinite(q.W) {
		log.Printf("orientation: non-numeric quaternion %+v, using zero pose", q)
		return Pose{}
	}

	roll := math.Atan2(2*(q.W*q.X+q.Y*q.Z), 1-2*(q.X*q.X+q.Y*q.Y))

	// Gimbal lock: the asin argument saturates at the +/-90° boundary.
	var pitch float64
	if s := 2 * (q.W*q.Y - q.Z*q.X); math.Abs(s) >= 1 {
		pitch = math.Copysign(math.Pi/2, s)
	} else {
		pitch = math.Asin(s)
	}

	yaw := math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))

	return Pose{
		Roll:  roll * degPerRad,
		Pitch: pitch * degPerRad,
		Yaw:   yaw * degPerRad,
	}
}

// FromPose builds the quaternion for a pose by composing the three axis
// rotations qz*qy*qx. Used by producers and as the reference construction
// in round-trip tests.
func FromPose(p Pose) Quaternion {
	hr := p.Roll / 2 / degPerRad
	hp := p.Pitch / 2 / degPerRad
	hy := p.Yaw / 2 / degPerRad

	qx := quat.Number{Real: math.Cos(hr), Imag: math.Sin(hr)}
	qy := quat.Number{Real: math.Cos(hp), Jmag: math.Sin(hp)}
	qz := quat.Number{Real: math.Cos(hy), Kmag: math.Sin(hy)}

	q := quat.Mul(qz, quat.Mul(qy, qx))
	return Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
