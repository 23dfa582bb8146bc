// Package kafka publishes heat alerts to a Kafka topic for downstream
// notification services. Publishing is optional; the pipeline runs without
// it when no brokers are configured.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/heatwave-forecast-service/internal/config"
	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

// Publisher produces alert messages to the configured topic.
// It implements pipeline.AlertPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the alert topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishAlerts serializes and publishes a day's alerts in a single
// WriteMessages call.
func (p *Publisher) PublishAlerts(ctx context.Context, alerts []domain.DailyRiskAssessment) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(alerts))
	for i := range alerts {
		msg, err := serializeToMessage(alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// alertPayload is the wire shape of one published alert.
type alertPayload struct {
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Date                string  `json:"date"`
	InitTime            string  `json:"init_time"`
	Level               int     `json:"risk_level"`
	Label               string  `json:"risk_label"`
	Message             string  `json:"message"`
	MaxTemperature      float64 `json:"max_temperature_c"`
	MaxHeatIndex        float64 `json:"max_heat_index_c"`
	ConsecutiveHotHours int     `json:"consecutive_hot_hours"`
	NighttimeCooling    float64 `json:"nighttime_cooling_c"`
	Region              string  `json:"region"`
}

func serializeToMessage(alert domain.DailyRiskAssessment) (kafkago.Message, error) {
	payload := alertPayload{
		Latitude:            alert.Latitude,
		Longitude:           alert.Longitude,
		Date:                alert.Date.Format("2006-01-02"),
		InitTime:            alert.InitTime.Format(time.RFC3339),
		Level:               int(alert.Level),
		Label:               alert.Level.Label(),
		Message:             alert.Message,
		MaxTemperature:      alert.MaxTemperature,
		MaxHeatIndex:        alert.MaxHeatIndex,
		ConsecutiveHotHours: alert.ConsecutiveHotHours,
		NighttimeCooling:    alert.NighttimeCooling,
		Region:              alert.Region,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize heat alert: %w", err)
	}
	key := fmt.Sprintf("%.4f:%.4f:%s", alert.Latitude, alert.Longitude, payload.Date)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(alert.Level.Label())},
			{Key: "region", Value: []byte(alert.Region)},
		},
	}, nil
}
