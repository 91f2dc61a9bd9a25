package app

import (
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/orientation_panel/internal/config"
	"github.com/relabs-tech/orientation_panel/internal/mqtthost"
	"github.com/relabs-tech/orientation_panel/internal/panel"
	"github.com/relabs-tech/orientation_panel/internal/render"
	"github.com/relabs-tech/orientation_panel/internal/rosmsg"
)

// RunDisplay renders the panel on a 128x64 SSD1306 OLED. With
// DISPLAY_TOPIC set only that source is enabled (and gets the numeric
// readout); otherwise the whole catalog is shown as indicator lines.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := showSplash(dev); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	catalog, err := mqtthost.ParseCatalog(cfg.PanelTopics)
	if err != nil {
		return fmt.Errorf("PANEL_TOPICS: %w", err)
	}

	mq, err := mqtthost.New(
		cfg.MQTTBroker,
		cfg.MQTTClientIDDisplay,
		catalog,
		time.Duration(cfg.DeliveryInterval)*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer mq.Close()

	state := panel.DefaultState()
	for _, t := range catalog {
		if !rosmsg.SchemaSupported(t.Schema) {
			continue
		}
		if cfg.DisplayTopic == "" || cfg.DisplayTopic == t.Name {
			state = state.WithSourceEnabled(t.Name, true)
		}
	}

	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	renderer := &render.ImageRenderer{
		Dst:   img,
		Ink:   image1bit.On,
		Blank: image1bit.Off,
		Flush: func(frame image.Image) error {
			return dev.Draw(dev.Bounds(), frame, image.Point{})
		},
	}

	p := panel.New(mq, nil, renderer, state,
		time.Duration(cfg.DisplayUpdateInterval)*time.Millisecond)
	p.SetCatalog(catalog)

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("display: shutting down")
		close(stop)
	}()

	mq.Run(p, stop)
	return p.Close()
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawString("Orientation")

	drawer.Dot = fixed.P(25, 43)
	drawer.DrawString("Panel")

	drawer.Dot = fixed.P(5, 56)
	drawer.DrawString("Waiting...")

	return dev.Draw(dev.Bounds(), img, image.Point{})
}
