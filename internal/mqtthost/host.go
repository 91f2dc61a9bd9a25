// Package mqtthost adapts an MQTT broker into the panel's hosting
// environment: it carries the topic catalog, turns the panel's
// subscription list into broker subscriptions, and delivers received
// messages to the panel in batches on a single goroutine.
package mqtthost

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/orientation_panel/internal/panel"
)

// Host owns the MQTT client and the delivery loop. Everything that
// touches the panel (deliveries and queued actions) runs on the Run
// goroutine; only the pending buffer is shared with paho's callbacks.
type Host struct {
	client   mqtt.Client
	catalog  []panel.TopicInfo
	interval time.Duration

	mu      sync.Mutex
	pending []panel.Message

	subscribed map[string]bool
	actions    chan func()
	stopped    chan struct{}
}

// New connects to the broker. The catalog is fixed for the process
// lifetime: MQTT has no topic discovery, so the deployment lists its
// orientation topics in the config file.
func New(broker, clientID string, catalog []panel.TopicInfo, interval time.Duration) (*Host, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	log.Printf("mqtthost: connected to MQTT broker at %s", broker)

	return &Host{
		client:     client,
		catalog:    catalog,
		interval:   interval,
		subscribed: map[string]bool{},
		actions:    make(chan func(), 16),
		stopped:    make(chan struct{}),
	}, nil
}

// Catalog returns the configured topic catalog.
func (h *Host) Catalog() []panel.TopicInfo { return h.catalog }

// Subscribe implements panel.Host: it reconciles the broker subscriptions
// against the requested names. An empty list unsubscribes everything.
func (h *Host) Subscribe(names []string) error {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	for topic := range h.subscribed {
		if want[topic] {
			continue
		}
		if token := h.client.Unsubscribe(topic); token.Wait() && token.Error() != nil {
			return fmt.Errorf("unsubscribe %s: %w", topic, token.Error())
		}
		delete(h.subscribed, topic)
		log.Printf("mqtthost: unsubscribed from %s", topic)
	}

	for topic := range want {
		if h.subscribed[topic] {
			continue
		}
		if token := h.client.Subscribe(topic, 0, h.onMessage); token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		h.subscribed[topic] = true
		log.Printf("mqtthost: subscribed to %s", topic)
	}

	return nil
}

// onMessage runs on paho's goroutine: decode and buffer, nothing else.
func (h *Host) onMessage(_ mqtt.Client, msg mqtt.Message) {
	var data map[string]any
	if err := json.Unmarshal(msg.Payload(), &data); err != nil {
		log.Printf("mqtthost: payload unmarshal error on %s: %v", msg.Topic(), err)
		return
	}
	h.mu.Lock()
	h.pending = append(h.pending, panel.Message{Topic: msg.Topic(), Data: data})
	h.mu.Unlock()
}

// Do queues work onto the delivery loop so settings edits from other
// goroutines (HTTP handlers) touch the panel single-threaded. Returns
// false once Run has stopped: the loop no longer drains the queue, so
// the work would never execute and callers must not wait for it.
func (h *Host) Do(fn func()) bool {
	// Checked first on its own: the buffered send below can stay ready
	// after shutdown, and a two-way select would pick between them at
	// random.
	select {
	case <-h.stopped:
		return false
	default:
	}
	select {
	case h.actions <- fn:
		return true
	case <-h.stopped:
		return false
	}
}

// Run drives the panel until stop closes: queued actions run as they
// arrive, buffered messages are delivered as one batch per tick in their
// arrival order. Each batch must be acknowledged through the completion
// callback before the next one goes out.
func (h *Host) Run(p *panel.Panel, stop <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			// Stop accepting, then drain: anything Do already queued
			// still runs, so no caller is left waiting on it.
			close(h.stopped)
			for {
				select {
				case fn := <-h.actions:
					fn()
				default:
					return
				}
			}
		case fn := <-h.actions:
			fn()
		case <-ticker.C:
			batch := h.takePending()
			if len(batch) == 0 {
				continue
			}
			acked := false
			p.Deliver(batch, h.catalog, func() { acked = true })
			if !acked {
				log.Printf("mqtthost: panel did not acknowledge batch of %d", len(batch))
			}
		}
	}
}

// Close disconnects from the broker.
func (h *Host) Close() {
	h.client.Disconnect(250)
}

func (h *Host) takePending() []panel.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	batch := h.pending
	h.pending = nil
	return batch
}

// ParseCatalog reads the PANEL_TOPICS config value: comma-separated
// name:schema pairs, e.g.
//
//	imu/left:sensor_msgs/Imu, odom:nav_msgs/Odometry
func ParseCatalog(spec string) ([]panel.TopicInfo, error) {
	var catalog []panel.TopicInfo
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, schema, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("invalid topic entry %q, want name:schema", entry)
		}
		catalog = append(catalog, panel.TopicInfo{
			Name:   strings.TrimSpace(name),
			Schema: strings.TrimSpace(schema),
		})
	}
	return catalog, nil
}
