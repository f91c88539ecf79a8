package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

type recordedEvent struct {
	Topic string
	Key   string
	Event mykafka.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Topic: topic, Key: key, Event: event.(mykafka.Event)})
	return nil
}

func (p *recordingPublisher) types(topic string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e.Event.Type)
		}
	}
	return out
}

type failingPublisher struct{}

func (failingPublisher) PublishEvent(context.Context, string, string, any) error {
	return errors.New("broker down")
}

type fakeGateway struct {
	mu       sync.Mutex
	fail     bool
	requests []payment.IntentRequest
}

func (g *fakeGateway) CreatePaymentIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.fail {
		return nil, errors.New("card processor unreachable")
	}
	id := "pi_" + uuid.NewString()
	return &payment.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) setFail(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = v
}

func (g *fakeGateway) last() payment.IntentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type fixture struct {
	repo    *repo.GormRepo
	events  *recordingPublisher
	gateway *fakeGateway
	cart    *CartService
	order   *OrderService
	catalog *CatalogService
	auth    *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := &repo.GormRepo{DB: testutil.NewDB(t)}
	ev := &recordingPublisher{}
	gw := &fakeGateway{}
	return &fixture{
		repo:    r,
		events:  ev,
		gateway: gw,
		cart:    &CartService{Repo: r, Events: ev},
		order:   &OrderService{Repo: r, Gateway: gw, Events: ev},
		catalog: &CatalogService{Repo: r, Events: ev},
		auth: &AuthService{
			Repo:          r,
			AccessSecret:  []byte("access-secret-access-secret-0123"),
			RefreshSecret: []byte("refresh-secret-refresh-secret-01"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
		},
	}
}

func (f *fixture) newCart(t *testing.T, userID *uuid.UUID) uuid.UUID {
	t.Helper()
	c := testutil.NewCart(t, f.repo.DB, userID)
	return c.ID
}
