// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/orientation_panel/internal/config"
	"github.com/relabs-tech/orientation_panel/internal/mqtthost"
	"github.com/relabs-tech/orientation_panel/internal/panel"
	"github.com/relabs-tech/orientation_panel/internal/render"
)

// RunPanel runs the orientation panel against the MQTT hosting
// environment with the live web view as its render surface.
func RunPanel() error {
	cfg := config.Get()

	catalog, err := mqtthost.ParseCatalog(cfg.PanelTopics)
	if err != nil {
		return fmt.Errorf("PANEL_TOPICS: %w", err)
	}

	host, err := mqtthost.New(
		cfg.MQTTBroker,
		cfg.MQTTClientIDPanel,
		catalog,
		time.Duration(cfg.DeliveryInterval)*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer host.Close()

	store := panel.FileStore{Path: cfg.PanelStateFile}
	hub := newFrameHub()
	renderer := render.NewFrameRenderer(hub.BroadcastFrame, nil)

	p := panel.New(host, store, renderer, store.Load(),
		time.Duration(cfg.RenderMinSpacing)*time.Millisecond)
	p.SetCatalog(catalog)
	hub.BroadcastSettings(p.Settings())

	go func() {
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		if err := serveWeb(addr, hub, p, host.Do); err != nil {
			log.Fatalf("panel: web server: %v", err)
		}
	}()

	// Drive deliveries until Ctrl+C, then tear the panel down so every
	// topic is unsubscribed before disconnecting.
	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("panel: shutting down")
		close(stop)
	}()

	host.Run(p, stop)
	return p.Close()
}
