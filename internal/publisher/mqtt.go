package publisher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/ehrkpi/internal/config"
	"github.com/jgoulah/ehrkpi/internal/dataset"
	"github.com/jgoulah/ehrkpi/pkg/models"
)

const publishTimeout = 10 * time.Second

// Publisher sends dataset summaries to an MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// Message is one retained MQTT publication
type Message struct {
	Topic   string
	Payload []byte
}

// SummaryPayload is published to <prefix>/summary
type SummaryPayload struct {
	Source      string `json:"source"`
	Records     int    `json:"records"`
	States      int    `json:"states"`
	PublishedAt string `json:"published_at"`
}

// StatePayload is published to <prefix>/states/<state_code>_<state_fips>
type StatePayload struct {
	models.StateKey
	Records int `json:"records"`
}

// New connects to the configured broker
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID(cfg.GetClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}
	slog.Debug("connected to MQTT broker", "broker", cfg.Broker)

	return &Publisher{
		client:      client,
		topicPrefix: cfg.GetTopicPrefix(),
	}, nil
}

// BuildMessages renders the summary message followed by one message per
// distinct state, in first-seen order.
func BuildMessages(prefix, source string, records []models.KPIRecord, now time.Time) ([]Message, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	states := dataset.UniqueStates(records)

	perState := make(map[models.StateKey]int, len(states))
	for _, r := range records {
		perState[r.StateKey()]++
	}

	summary, err := json.Marshal(SummaryPayload{
		Source:      source,
		Records:     len(records),
		States:      len(states),
		PublishedAt: now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}

	messages := make([]Message, 0, len(states)+1)
	messages = append(messages, Message{Topic: prefix + "/summary", Payload: summary})

	for _, s := range states {
		body, err := json.Marshal(StatePayload{StateKey: s, Records: perState[s]})
		if err != nil {
			return nil, fmt.Errorf("encoding state %s: %w", s.StateCode, err)
		}
		messages = append(messages, Message{
			Topic:   fmt.Sprintf("%s/states/%s", prefix, stateTopic(s)),
			Payload: body,
		})
	}

	return messages, nil
}

// stateTopic names the topic level for one triple. The FIPS code keeps
// triples that share a state code on separate retained topics.
func stateTopic(s models.StateKey) string {
	return topicSegment(s.StateCode) + "_" + topicSegment(s.StateFIPS)
}

// topicSegment keeps MQTT wildcard and separator characters out of a topic level.
func topicSegment(s string) string {
	s = strings.NewReplacer("/", "_", "+", "_", "#", "_").Replace(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

// Publish sends the summary and per-state messages for records as retained
// QoS 1 messages. It stops at the first failed publication.
func (p *Publisher) Publish(source string, records []models.KPIRecord) (int, error) {
	messages, err := BuildMessages(p.topicPrefix, source, records, time.Now())
	if err != nil {
		return 0, err
	}

	for i, m := range messages {
		token := p.client.Publish(m.Topic, 1, true, m.Payload)
		if !token.WaitTimeout(publishTimeout) {
			return i, fmt.Errorf("publishing %s: timed out after %s", m.Topic, publishTimeout)
		}
		if err := token.Error(); err != nil {
			return i, fmt.Errorf("publishing %s: %w", m.Topic, err)
		}
		slog.Debug("published", "topic", m.Topic, "bytes", len(m.Payload))
	}

	return len(messages), nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
