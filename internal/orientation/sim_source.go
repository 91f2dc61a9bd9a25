// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
	"time"
)

type simSource struct {
	start time.Time

	rollAmp  float64
	pitchAmp float64
	yawRate  float64
}

// NewSimSource creates a simulated orientation source that generates
// smooth changing values: sinusoidal roll/pitch and a constant-rate yaw
// sweep. Useful for exercising the panel without hardware.
func NewSimSource(rollAmp, pitchAmp, yawRate float64) Source {
	return &simSource{
		start:    time.Now(),
		rollAmp:  rollAmp,
		pitchAmp: pitchAmp,
		yawRate:  yawRate,
	}
}

func (m *simSource) Next() (Pose, error) {
	elapsed := time.Since(m.start).Seconds()

	yaw := math.Mod(elapsed*m.yawRate, 360)
	if yaw > 180 {
		yaw -= 360
	}

	return Pose{
		Roll:  m.rollAmp * math.Sin(elapsed),
		Pitch: m.pitchAmp * math.Cos(elapsed*0.7),
		Yaw:   yaw,
	}, nil
}
