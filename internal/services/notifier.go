package services

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// NotifierConfig holds the APNs credentials. An empty key file disables
// push entirely.
type NotifierConfig struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// Notifier delivers APNs pushes. A nil Notifier is valid and drops every
// push, which is how local and test setups run.
type Notifier struct {
	client *apns2.Client
	topic  string
}

// NewNotifier creates an APNs notifier, or nil when no key is configured.
func NewNotifier(cfg NotifierConfig) (*Notifier, error) {
	if cfg.KeyFile == "" {
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &Notifier{client: client, topic: cfg.Topic}, nil
}

// Push sends an alert to a device. Delivery failures are logged, never
// surfaced: a missed notification must not fail the request that caused
// it.
func (n *Notifier) Push(deviceToken *string, title, body string, badge int) {
	if n == nil || deviceToken == nil || *deviceToken == "" {
		return
	}

	p := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	if badge > 0 {
		p = p.Badge(badge)
	}

	res, err := n.client.Push(&apns2.Notification{
		DeviceToken: *deviceToken,
		Topic:       n.topic,
		Payload:     p,
	})
	if err != nil {
		log.Error().Err(err).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().Int("status", res.StatusCode).Str("reason", res.Reason).Msg("APNs push rejected")
	}
}
