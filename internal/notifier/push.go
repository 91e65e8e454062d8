package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/yukikurage/household-api/internal/models"
	"go.uber.org/zap"
)

const pushTTL = 24 * 60 * 60

// SubscriptionStore loads and prunes the push endpoints of a user.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context, userID uint64) ([]models.PushSubscription, error)
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// PushMessage is the JSON document delivered to the service worker.
type PushMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// PushSender delivers Web Push messages signed with VAPID keys.
type PushSender struct {
	subscriptions SubscriptionStore
	publicKey     string
	privateKey    string
	subscriber    string
	httpClient    webpush.HTTPClient
	logger        *zap.Logger
}

// NewPushSender creates a PushSender. Empty keys disable sending.
func NewPushSender(subscriptions SubscriptionStore, publicKey, privateKey, subscriber string, logger *zap.Logger) *PushSender {
	return &PushSender{
		subscriptions: subscriptions,
		publicKey:     publicKey,
		privateKey:    privateKey,
		subscriber:    subscriber,
		httpClient:    http.DefaultClient,
		logger:        logger,
	}
}

// Configured reports whether VAPID keys are set.
func (p *PushSender) Configured() bool {
	return p.publicKey != "" && p.privateKey != ""
}

// PublicKey returns the VAPID public key browsers subscribe with.
func (p *PushSender) PublicKey() string {
	return p.publicKey
}

// Send pushes msg to every endpoint of the user. Endpoints the push service
// reports as gone are deleted.
func (p *PushSender) Send(ctx context.Context, userID uint64, msg PushMessage) error {
	if !p.Configured() {
		return ErrDisabled
	}
	subs, err := p.subscriptions.ListSubscriptions(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	var errs []error
	for _, sub := range subs {
		if err := p.sendOne(ctx, sub, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *PushSender) sendOne(ctx context.Context, sub models.PushSubscription, data []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      p.httpClient,
		Subscriber:      p.subscriber,
		VAPIDPublicKey:  p.publicKey,
		VAPIDPrivateKey: p.privateKey,
		TTL:             pushTTL,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		p.logger.Info("pruning expired push subscription", zap.Uint64("user_id", sub.UserID), zap.Uint64("subscription_id", sub.ID))
		if err := p.subscriptions.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
			return fmt.Errorf("delete expired subscription: %w", err)
		}
		return nil
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}
