// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/orientation_panel/internal/app"
	"github.com/relabs-tech/orientation_panel/internal/config"
)

func main() {
	log.Println("starting orientation panel (MQTT subscriber + web view)")

	// Load configuration
	if err := config.InitGlobal("panel_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunPanel(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
