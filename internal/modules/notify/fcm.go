// README: FCM sender backed by the Firebase Admin messaging client.
package notify

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"
)

type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, token string, n Notification) error {
	data := map[string]string{"type": string(n.Type)}
	for k, v := range n.Data {
		data[k] = v
	}
	if n.ActionURL != "" {
		data["action_url"] = n.ActionURL
	}

	msg := &messaging.Message{
		Token: token,
		Data:  data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending FCM to token %s: %w", token, err)
	}
	return nil
}
