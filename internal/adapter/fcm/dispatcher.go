// Package fcm delivers action-card push notifications through Firebase
// Cloud Messaging.
package fcm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/pes-safety/evac-notifier/internal/domain"
)

const (
	notificationTTL  = 10 * time.Minute
	androidChannelID = "emergency_alerts"
)

// messageSender is the slice of the FCM API the dispatcher uses. The real
// messaging.Client satisfies it.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// BatchResult summarizes one delivery batch. Outcomes is index-aligned
// with the input notifications.
type BatchResult struct {
	Success  int
	Failed   int
	Outcomes []DeliveryOutcome
}

// DeliveryOutcome is the result for a single notification in a batch.
type DeliveryOutcome struct {
	DeviceID string
	Err      error
}

// Dispatcher sends action cards to subscriber devices.
//
// A Dispatcher built without credentials stays in a degraded mode where
// every send fails and is counted, rather than panicking or blocking the
// pipeline. That keeps local development usable without a Firebase
// project.
type Dispatcher struct {
	sender messageSender
	logger *slog.Logger
}

// NewDispatcher initializes the Firebase app from a service-account file.
// An empty credentials path yields a degraded dispatcher.
func NewDispatcher(ctx context.Context, credentialsPath string, logger *slog.Logger) (*Dispatcher, error) {
	if strings.TrimSpace(credentialsPath) == "" {
		if logger != nil {
			logger.Warn("no firebase credentials configured, push delivery disabled")
		}
		return &Dispatcher{logger: logger}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &Dispatcher{sender: client, logger: logger}, nil
}

// newWithSender is the test seam.
func newWithSender(sender messageSender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// SendOne delivers a single action card to one device.
func (d *Dispatcher) SendOne(ctx context.Context, sub domain.Subscriber, alert domain.Alert, card domain.ActionCard) error {
	if d.sender == nil {
		return fmt.Errorf("push delivery disabled: no fcm credentials")
	}
	if strings.TrimSpace(sub.PushToken) == "" {
		return fmt.Errorf("subscriber %s has no push token", sub.DeviceID)
	}

	msg, err := buildMessage(sub.PushToken, alert, card)
	if err != nil {
		return err
	}
	if _, err := d.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send to device %s: %w", sub.DeviceID, err)
	}
	return nil
}

// SendBatch delivers one card per subscriber and reports per-batch
// counts. Individual failures are logged and counted, never fatal.
func (d *Dispatcher) SendBatch(ctx context.Context, notifications []Notification) BatchResult {
	result := BatchResult{Outcomes: make([]DeliveryOutcome, 0, len(notifications))}
	for _, n := range notifications {
		err := d.SendOne(ctx, n.Subscriber, n.Alert, n.Card)
		result.Outcomes = append(result.Outcomes, DeliveryOutcome{
			DeviceID: n.Subscriber.DeviceID,
			Err:      err,
		})
		if err != nil {
			result.Failed++
			if d.logger != nil {
				d.logger.Warn("push delivery failed",
					"device_id", n.Subscriber.DeviceID,
					"alert_id", n.Alert.ID,
					"error", err)
			}
			continue
		}
		result.Success++
	}
	return result
}

// Notification is one queued delivery.
type Notification struct {
	Subscriber domain.Subscriber
	Alert      domain.Alert
	Card       domain.ActionCard
}

func buildMessage(token string, alert domain.Alert, card domain.ActionCard) (*messaging.Message, error) {
	shelterSummary, err := shelterJSON(card.Shelters)
	if err != nil {
		return nil, err
	}

	ttl := notificationTTL
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: notificationTitle(alert),
			Body:  firstLine(card.Text),
		},
		Data: map[string]string{
			"type":      "action_card",
			"alert_id":  alert.ID,
			"category":  string(alert.Category),
			"card":      card.Text,
			"method":    string(card.Method),
			"shelters":  shelterSummary,
			"timestamp": alert.IssuedAt.UTC().Format(time.RFC3339),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			TTL:      &ttl,
			Notification: &messaging.AndroidNotification{
				ChannelID: androidChannelID,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
					Badge: intPtr(1),
				},
			},
		},
	}, nil
}

func notificationTitle(alert domain.Alert) string {
	label := strings.TrimSpace(alert.CategoryLabel)
	if label == "" {
		label = "재난"
	}
	area := strings.TrimSpace(alert.AreaName)
	if area == "" {
		return fmt.Sprintf("🚨 [%s 경보]", label)
	}
	return fmt.Sprintf("🚨 [%s 경보] %s", label, area)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return text
}

type shelterEntry struct {
	Name           string  `json:"name"`
	DistanceKM     float64 `json:"distance_km"`
	WalkingMinutes int     `json:"walking_minutes"`
}

func shelterJSON(shelters []domain.RankedShelter) (string, error) {
	entries := make([]shelterEntry, 0, len(shelters))
	for _, s := range shelters {
		entries = append(entries, shelterEntry{
			Name:           s.Name,
			DistanceKM:     s.DistanceKM,
			WalkingMinutes: s.WalkingMinutes,
		})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode shelter summary: %w", err)
	}
	return string(raw), nil
}

func intPtr(v int) *int { return &v }
