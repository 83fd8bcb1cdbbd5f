package directory

import "testing"

func TestRegisterAppendsAndIsOrderPreserving(t *testing.T) {
	reg := NewRegistry()

	got := reg.Register("10.0.0.1", "6666")
	if len(got) != 1 {
		t.Fatalf("expected 1 broker after first register, got %d", len(got))
	}

	got = reg.Register("10.0.0.2", "7777")
	if len(got) != 2 {
		t.Fatalf("expected 2 brokers after second register, got %d", len(got))
	}
	if got[0].BrokerIP != "10.0.0.1" || got[1].BrokerIP != "10.0.0.2" {
		t.Fatalf("unexpected registration order: %+v", got)
	}
}

func TestRegisterDuplicateIsNotDeduped(t *testing.T) {
	// §9: re-registering after a restart produces a duplicate entry, by
	// design — the registry has no liveness check to reconcile against.
	reg := NewRegistry()
	reg.Register("10.0.0.1", "6666")
	got := reg.Register("10.0.0.1", "6666")
	if len(got) != 2 {
		t.Fatalf("expected duplicate entries to both be kept, got %d", len(got))
	}
}

func TestListReturnsACopy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("10.0.0.1", "6666")

	list := reg.List()
	list[0].BrokerIP = "mutated"

	fresh := reg.List()
	if fresh[0].BrokerIP != "10.0.0.1" {
		t.Fatalf("mutating a returned list must not affect the registry, got %+v", fresh)
	}
}
