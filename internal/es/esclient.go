package es

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v9"
)

type Config struct {
	URL      string
	User     string
	Password string
	// Transport overrides the HTTP transport; nil uses the default.
	Transport http.RoundTripper
}

// NewClient connects to Elasticsearch and waits until the cluster answers
// an info request or ctx expires.
func NewClient(ctx context.Context, cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	ping := func() error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			body, _ := io.ReadAll(res.Body)
			return fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 30 * time.Second
	err = backoff.RetryNotify(ping, backoff.WithContext(bo, ctx), func(err error, d time.Duration) {
		slog.Warn("es_connect_retry", "err", err, "next_in", d)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("es_connected", "url", cfg.URL)
	return client, nil
}
