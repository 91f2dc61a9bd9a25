package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDPanel    string
	MQTTClientIDConsole  string
	MQTTClientIDDisplay  string
	MQTTClientIDProducer string
	MQTTClientIDNMEA     string

	// Topic catalog offered to the panel: "name:schema, name:schema, ...".
	PanelTopics string

	// Panel
	PanelStateFile   string
	DeliveryInterval int // milliseconds between delivery batches
	RenderMinSpacing int // milliseconds between redraws (throttle)

	// Web Server
	WebServerPort int

	// OLED display
	DisplayUpdateInterval int // milliseconds
	DisplayTopic          string

	// Producers
	ProducerTopicIMU  string
	ProducerTopicOdom string
	ProducerInterval  int // milliseconds

	// NMEA heading producer
	NMEASerialPort string
	NMEABaudRate   int
	NMEATopic      string
}

// Package-level unexported variables for singleton access: InitGlobal sets
// the config exactly once, Get reads it under a read lock so every command
// shares one instance.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		MQTTClientIDPanel:     "orientation-panel",
		MQTTClientIDConsole:   "orientation-panel-console",
		MQTTClientIDDisplay:   "orientation-panel-display",
		MQTTClientIDProducer:  "orientation-panel-producer",
		MQTTClientIDNMEA:      "orientation-panel-nmea",
		PanelStateFile:        "panel_state.json",
		DeliveryInterval:      50,
		RenderMinSpacing:      100,
		WebServerPort:         8080,
		DisplayUpdateInterval: 200,
		ProducerInterval:      100,
		NMEABaudRate:          9600,
	}
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PANEL":
		c.MQTTClientIDPanel = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_NMEA":
		c.MQTTClientIDNMEA = value

	// Panel
	case "PANEL_TOPICS":
		c.PanelTopics = value
	case "PANEL_STATE_FILE":
		c.PanelStateFile = value
	case "DELIVERY_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DELIVERY_INTERVAL %q: %w", value, err)
		}
		c.DeliveryInterval = interval
	case "RENDER_MIN_SPACING":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid RENDER_MIN_SPACING %q: %w", value, err)
		}
		c.RenderMinSpacing = interval

	// Web Server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "DISPLAY_TOPIC":
		c.DisplayTopic = value

	// Producers
	case "PRODUCER_TOPIC_IMU":
		c.ProducerTopicIMU = value
	case "PRODUCER_TOPIC_ODOM":
		c.ProducerTopicOdom = value
	case "PRODUCER_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid PRODUCER_INTERVAL %q: %w", value, err)
		}
		c.ProducerInterval = interval

	// NMEA
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		rate, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid NMEA_BAUD_RATE %q: %w", value, err)
		}
		c.NMEABaudRate = rate
	case "NMEA_TOPIC":
		c.NMEATopic = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.PanelTopics == "" {
		return fmt.Errorf("PANEL_TOPICS is required")
	}
	if c.DeliveryInterval <= 0 {
		return fmt.Errorf("DELIVERY_INTERVAL must be positive")
	}
	if c.RenderMinSpacing < 0 {
		return fmt.Errorf("RENDER_MIN_SPACING must not be negative")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Uses
// sync.Once so repeated calls are harmless.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
