package pubsub

import (
	"context"
	"testing"

	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	if got := topicResourceName("proj", "cm-order-events"); got != "projects/proj/topics/cm-order-events" {
		t.Fatalf("unexpected topic name %s", got)
	}
	if got := subscriptionResourceName("proj", " worker "); got != "projects/proj/subscriptions/worker" {
		t.Fatalf("unexpected subscription name %s", got)
	}
	full := "projects/other/topics/x"
	if got := topicResourceName("proj", full); got != full {
		t.Fatalf("full resource names should pass through, got %s", got)
	}
	if got := topicResourceName("", "x"); got != "" {
		t.Fatalf("expected empty name without project, got %s", got)
	}
	if got := subscriptionResourceName("proj", ""); got != "" {
		t.Fatalf("expected empty name for blank input, got %s", got)
	}
}

func TestClientOptionsFromCredentials(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected default credentials, got %d options", len(opts))
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}); len(opts) != 1 {
		t.Fatalf("expected json credentials option")
	}
	if opts := clientOptions(config.GCPConfig{ApplicationCredentials: "/secrets/sa.json"}); len(opts) != 1 {
		t.Fatalf("expected file credentials option")
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, false, nil); err == nil {
		t.Fatalf("expected project id error")
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil || c.Subscription("x") != nil {
		t.Fatalf("nil client should return nil handles")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close on nil client: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping error on nil client")
	}
}
