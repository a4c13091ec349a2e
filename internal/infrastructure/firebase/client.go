package firebase

import (
	"context"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCM rejects multicast batches larger than 500 tokens.
const fcmBatchLimit = 500

// TokenDeactivator marks an invalid FCM token as inactive. Provided by the
// caller so this package stays decoupled from the notification repository.
type TokenDeactivator func(ctx context.Context, token string) error

// Client implements notification.Messenger over Firebase Cloud Messaging.
type Client struct {
	messaging   *messaging.Client
	deactivator TokenDeactivator
}

// NewClient initializes a Firebase app from a service-account credentials
// file. deactivator may be nil, in which case bad tokens are only logged.
func NewClient(ctx context.Context, credentialsFile string, deactivator TokenDeactivator) (*Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase messaging: %w", err)
	}

	return &Client{messaging: mc, deactivator: deactivator}, nil
}

// Send delivers a single obligation alert to one device token.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	_, err := c.messaging.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
	})
	if err != nil {
		if tokenIsDead(err) {
			c.retire(ctx, token)
			return fmt.Errorf("invalid token: %w", err)
		}
		return fmt.Errorf("sending FCM message: %w", err)
	}
	return nil
}

// SendMulticast delivers the same alert to many tokens, batching at the FCM
// limit. Dead tokens are retired as failures come back; other send errors are
// logged and do not abort the remaining batches.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	for start := 0; start < len(tokens); start += fcmBatchLimit {
		end := min(start+fcmBatchLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := c.messaging.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: title, Body: body},
			Data:         data,
		})
		if err != nil {
			return fmt.Errorf("sending FCM multicast: %w", err)
		}

		for i, r := range resp.Responses {
			if r.Error == nil {
				continue
			}
			if tokenIsDead(r.Error) {
				c.retire(ctx, batch[i])
			} else {
				log.Printf("FCM send failed for token %s: %v", batch[i], r.Error)
			}
		}
	}
	return nil
}

func tokenIsDead(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
}

func (c *Client) retire(ctx context.Context, token string) {
	log.Printf("Retiring invalid FCM token: %s", token)
	if c.deactivator == nil {
		return
	}
	if err := c.deactivator(ctx, token); err != nil {
		log.Printf("Failed to deactivate FCM token %s: %v", token, err)
	}
}
