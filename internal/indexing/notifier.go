// Package indexing submits job URLs to the Google Indexing API within a
// daily quota.
package indexing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	indexingapi "google.golang.org/api/indexing/v3"
	"google.golang.org/api/option"
)

type NotificationType string

const (
	URLUpdated NotificationType = "URL_UPDATED"
	URLDeleted NotificationType = "URL_DELETED"
)

// ErrRateLimited means the API refused a request for quota reasons. It
// stops the run.
var ErrRateLimited = errors.New("indexing api rate limited")

// Notifier publishes one URL notification.
type Notifier interface {
	Publish(ctx context.Context, url string, t NotificationType) error
}

// IsRateLimited reports a 429 or any error mentioning quota or rate limits.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "ratelimit")
}

// GoogleNotifier calls urlNotifications.publish.
type GoogleNotifier struct {
	svc *indexingapi.Service
}

// NewGoogleNotifier authenticates with a service account key file, or with
// application default credentials when credentialsFile is empty.
func NewGoogleNotifier(ctx context.Context, credentialsFile string) (*GoogleNotifier, error) {
	opts := []option.ClientOption{option.WithScopes(indexingapi.IndexingScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := indexingapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create indexing service: %w", err)
	}
	return &GoogleNotifier{svc: svc}, nil
}

func (g *GoogleNotifier) Publish(ctx context.Context, url string, t NotificationType) error {
	_, err := g.svc.UrlNotifications.Publish(&indexingapi.UrlNotification{
		Url:  url,
		Type: string(t),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("publish %s %s: %w", t, url, err)
	}
	return nil
}
