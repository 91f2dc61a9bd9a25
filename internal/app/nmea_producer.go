// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/orientation_panel/internal/config"
	"github.com/relabs-tech/orientation_panel/internal/orientation"
)

// RunNMEAProducer reads NMEA sentences from a serial GPS/compass and
// republishes the heading as a yaw-only Imu-shaped orientation message,
// so a boat or vehicle heading shows up on the panel's yaw compass.
// HDT true-heading sentences win over RMC course-over-ground when both
// are present.
func RunNMEAProducer() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDNMEA)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("NMEA producer connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.NMEASerialPort,
		BaudRate:              uint(cfg.NMEABaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("NMEA serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("NMEA read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy receivers produce partial sentences; skip quietly
			continue
		}

		var heading float64
		switch s := sentence.(type) {
		case nmea.HDT:
			heading = s.Heading
		case nmea.RMC:
			// Course over ground is only meaningful when moving and the
			// fix is valid.
			if s.Validity != nmea.ValidRMC || s.Speed < 0.5 {
				continue
			}
			heading = s.Course
		default:
			continue
		}

		// Compass headings run 0..360; the panel's yaw is (-180, 180].
		if heading > 180 {
			heading -= 360
		}

		var msg imuMessage
		msg.Orientation = orientation.FromPose(orientation.Pose{Yaw: heading})
		publishJSON(client, cfg.NMEATopic, msg)
	}
}
