package relay

import (
	"net"
	"testing"

	"github.com/openweaver/relaymesh/pkg/transport"
)

type fakeHandle struct {
	addr *net.UDPAddr
}

func (h *fakeHandle) DstAddr() *net.UDPAddr  { return h.addr }
func (h *fakeHandle) Send(data []byte) error { return nil }

func newFakeHandle(port int) transport.Handle {
	return &fakeHandle{addr: &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}}
}

func TestConnectionBucketFindMaxMin(t *testing.T) {
	b := NewConnectionBucket()
	x := newFakeHandle(1)
	y := newFakeHandle(2)
	z := newFakeHandle(3)

	b.Add(x, 500)
	b.Add(y, 50)
	b.Add(z, 10)

	if got := b.FindMaxRTT(); got != x {
		t.Errorf("FindMaxRTT returned wrong handle")
	}
	if got := b.FindMinRTT(); got != z {
		t.Errorf("FindMinRTT returned wrong handle")
	}
}

func TestConnectionBucketEmptyFindReturnsNil(t *testing.T) {
	b := NewConnectionBucket()
	if b.FindMaxRTT() != nil {
		t.Error("FindMaxRTT on an empty bucket should return nil")
	}
	if b.FindMinRTT() != nil {
		t.Error("FindMinRTT on an empty bucket should return nil")
	}
}

func TestConnectionBucketAddRemove(t *testing.T) {
	b := NewConnectionBucket()
	h := newFakeHandle(1)
	b.Add(h, 10)
	if !b.Contains(h) || b.Len() != 1 {
		t.Fatalf("expected handle present after Add")
	}
	b.Remove(h)
	if b.Contains(h) || b.Len() != 0 {
		t.Errorf("expected handle absent after Remove")
	}
}
