//go:build integration

package mqtt

import (
	"testing"
	"time"
)

// Integration tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndClose(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graywire-int-connect"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
}

func TestIntegration_BuildEventRoundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "graywire-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	received := make(chan string, 1)
	topics := client.Topics()
	if err := client.Subscribe(topics.AllServiceBuilds(), 1, func(topic string, _ []byte) error {
		received <- topic
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", client.SubscriptionCount())
	}

	if err := client.PublishJSON(topics.ServiceBuilt("db"), map[string]string{"name": "db"}, false); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	select {
	case topic := <-received:
		if topic != topics.ServiceBuilt("db") {
			t.Errorf("received on %q", topic)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for build event")
	}

	if err := client.Unsubscribe(topics.AllServiceBuilds()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() expected error for unreachable broker")
	}
}
