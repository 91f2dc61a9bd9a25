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
	"github.com/relabs-tech/orientation_panel/internal/rosmsg"
)

// RunConsole runs a throwaway panel over the whole catalog and prints
// every refresh as text lines. Nothing is persisted; it is a monitoring
// tool, not the panel proper.
func RunConsole() error {
	cfg := config.Get()

	catalog, err := mqtthost.ParseCatalog(cfg.PanelTopics)
	if err != nil {
		return fmt.Errorf("PANEL_TOPICS: %w", err)
	}

	host, err := mqtthost.New(
		cfg.MQTTBroker,
		cfg.MQTTClientIDConsole,
		catalog,
		time.Duration(cfg.DeliveryInterval)*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer host.Close()

	// Enable every readable topic up front.
	state := panel.DefaultState()
	for _, t := range catalog {
		if rosmsg.SchemaSupported(t.Schema) {
			state = state.WithSourceEnabled(t.Name, true)
		}
	}

	p := panel.New(host, nil, render.NewConsoleRenderer(), state,
		time.Duration(cfg.RenderMinSpacing)*time.Millisecond)
	p.SetCatalog(catalog)

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("console: shutting down")
		close(stop)
	}()

	host.Run(p, stop)
	return p.Close()
}
