package messaging

import "testing"

func TestHealth_NoConnection(t *testing.T) {
	rmq := &RabbitMQ{}

	health := rmq.Health()
	if health["status"] != "down" {
		t.Errorf("status = %q, want down", health["status"])
	}
	if health["error"] == "" {
		t.Error("expected an error message for a missing connection")
	}
}
