package rendezvousdht

import "testing"

func TestInfohashIsDeterministic(t *testing.T) {
	a := Infohash("relaymesh-prod")
	b := Infohash("relaymesh-prod")
	if a != b {
		t.Error("Infohash should be deterministic for the same rendezvous name")
	}
}

func TestInfohashDistinguishesNames(t *testing.T) {
	a := Infohash("relaymesh-prod")
	b := Infohash("relaymesh-staging")
	if a == b {
		t.Error("different rendezvous names should map to different infohashes")
	}
}

func TestNewLocatorFailsWithUnresolvableBootstrap(t *testing.T) {
	_, err := NewLocator(nil, "relaymesh-test", 9999, []string{"this.does.not.resolve.invalid:1"})
	if err == nil {
		t.Error("expected an error when no bootstrap node resolves")
	}
}
