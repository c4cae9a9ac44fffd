package relay

import (
	"fmt"
	"net"
	"testing"

	"github.com/openweaver/relaymesh/pkg/capability"
	"github.com/openweaver/relaymesh/pkg/transport"
)

type recordedCall struct {
	op      string
	channel string
	handle  transport.Handle
}

type fakePubSub struct {
	calls []recordedCall
}

func (p *fakePubSub) Subscribe(h transport.Handle, channel string) {
	p.calls = append(p.calls, recordedCall{"subscribe", channel, h})
}

func (p *fakePubSub) Unsubscribe(h transport.Handle, channel string) {
	p.calls = append(p.calls, recordedCall{"unsubscribe", channel, h})
}

type fakeDialer struct {
	handles map[string]transport.Handle
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{handles: make(map[string]transport.Handle)}
}

func (d *fakeDialer) Bind(addr *net.UDPAddr, delegate transport.Delegate) error { return nil }

func (d *fakeDialer) Dial(addr *net.UDPAddr) (transport.Handle, error) {
	key := addr.String()
	if h, ok := d.handles[key]; ok {
		return h, nil
	}
	h := &fakeHandle{addr: addr}
	d.handles[key] = h
	return h, nil
}

func (d *fakeDialer) Close() error { return nil }

func TestControllerInertForClientTag(t *testing.T) {
	table := capability.NewTable()
	c := New(capability.CLIENT, table, &fakePubSub{}, newFakeDialer(), nil, Config{})
	if !c.Inert() {
		t.Fatal("controller constructed with CLIENT tag should be inert")
	}

	c.NewPeer(&net.UDPAddr{Port: 1}, capability.MASTER, 10)
	if c.SolConns().Len() != 0 {
		t.Error("inert controller's NewPeer should not add connections")
	}
}

func TestControllerNewPeerOnlyAcceptsMaster(t *testing.T) {
	table := capability.NewTable()
	ps := &fakePubSub{}
	c := New(capability.MASTER, table, ps, newFakeDialer(), nil, Config{})

	c.NewPeer(&net.UDPAddr{IP: net.IPv4(1, 1, 1, 1), Port: 1}, capability.RELAY, 10)
	if c.SolConns().Len() != 0 {
		t.Error("NewPeer should ignore non-MASTER protocol tags")
	}

	c.NewPeer(&net.UDPAddr{IP: net.IPv4(1, 1, 1, 2), Port: 2}, capability.MASTER, 10)
	if c.SolConns().Len() != 1 {
		t.Errorf("SolConns().Len() = %d, want 1 after a MASTER peer", c.SolConns().Len())
	}
	if len(ps.calls) != len(DefaultChannels) {
		t.Errorf("subscribe calls = %d, want %d (one per channel)", len(ps.calls), len(DefaultChannels))
	}
}

// TestScenarioS5ChurnSwap mirrors spec scenario S5.
func TestScenarioS5ChurnSwap(t *testing.T) {
	table := capability.NewTable()
	ps := &fakePubSub{}
	c := New(capability.MASTER, table, ps, newFakeDialer(), []string{"eth"}, Config{})
	c.maxSolConns = 2

	x := newFakeHandle(1)
	y := newFakeHandle(2)
	z := newFakeHandle(3)
	w := newFakeHandle(4)

	c.solConns.Add(x, 500)
	c.solConns.Add(y, 50)
	c.solStandbyConns.Add(z, 10)
	c.solStandbyConns.Add(w, 900)

	c.ManageSubscriptions()

	if c.solConns.Contains(x) {
		t.Error("x should have been evicted from sol_conns")
	}
	if !c.solConns.Contains(y) || !c.solConns.Contains(z) {
		t.Error("sol_conns should now be {y, z}")
	}
	if !c.solStandbyConns.Contains(x) || !c.solStandbyConns.Contains(w) {
		t.Error("sol_standby_conns should now be {x, w}")
	}

	wantSeq := []recordedCall{
		{"unsubscribe", "eth", x},
		{"subscribe", "eth", z},
	}
	if len(ps.calls) != len(wantSeq) {
		t.Fatalf("pubsub calls = %d, want %d", len(ps.calls), len(wantSeq))
	}
	for i, want := range wantSeq {
		got := ps.calls[i]
		if got.op != want.op || got.channel != want.channel || got.handle != want.handle {
			t.Errorf("call %d = %+v, want %+v", i, got, want)
		}
	}
}

// TestScenarioS6UnderCapacityNoOp mirrors spec scenario S6.
func TestScenarioS6UnderCapacityNoOp(t *testing.T) {
	table := capability.NewTable()
	ps := &fakePubSub{}
	c := New(capability.MASTER, table, ps, newFakeDialer(), []string{"eth"}, Config{})
	c.maxSolConns = 2

	y := newFakeHandle(2)
	z := newFakeHandle(3)
	c.solConns.Add(y, 50)
	c.solStandbyConns.Add(z, 10)

	c.ManageSubscriptions()

	if len(ps.calls) != 0 {
		t.Errorf("expected no pubsub calls under capacity, got %d", len(ps.calls))
	}
	if !c.solConns.Contains(y) || c.solConns.Len() != 1 {
		t.Error("sol_conns should be unchanged ({y})")
	}
	if !c.solStandbyConns.Contains(z) || c.solStandbyConns.Len() != 1 {
		t.Error("sol_standby_conns should be unchanged ({z})")
	}
}

// TestChurnMonotonicity checks invariant 7: after a swap, both the min
// and max RTT of sol_conns are no worse than before.
func TestChurnMonotonicity(t *testing.T) {
	table := capability.NewTable()
	ps := &fakePubSub{}
	c := New(capability.MASTER, table, ps, newFakeDialer(), []string{"eth"}, Config{})
	c.maxSolConns = 2

	rtts := []float64{500, 50}
	standbyRtts := []float64{10, 900}
	for i, rtt := range rtts {
		c.solConns.Add(newFakeHandle(i+1), rtt)
	}
	for i, rtt := range standbyRtts {
		c.solStandbyConns.Add(newFakeHandle(i+10), rtt)
	}

	maxBefore, minBefore := extrema(c.solConns)
	c.ManageSubscriptions()
	maxAfter, minAfter := extrema(c.solConns)

	if maxAfter > maxBefore {
		t.Errorf("max RTT increased: before=%v after=%v", maxBefore, maxAfter)
	}
	if minAfter > minBefore {
		t.Errorf("min RTT increased: before=%v after=%v", minBefore, minAfter)
	}
}

// TestBucketDisjointnessAcrossOperations checks invariant 8.
func TestBucketDisjointnessAcrossOperations(t *testing.T) {
	table := capability.NewTable()
	ps := &fakePubSub{}
	dialer := newFakeDialer()
	c := New(capability.MASTER, table, ps, dialer, []string{"eth"}, Config{})
	c.maxSolConns = 2

	for i := 0; i < 5; i++ {
		c.NewPeer(&net.UDPAddr{IP: net.IPv4(1, 1, 1, byte(i)), Port: i}, capability.MASTER, float64(i*10))
	}
	c.solStandbyConns.Add(newFakeHandle(99), 1)
	c.ManageSubscriptions()

	assertDisjoint(t, c.solConns, c.solStandbyConns)
}

func assertDisjoint(t *testing.T, a, b *ConnectionBucket) {
	t.Helper()
	a.Each(func(h transport.Handle, _ float64) {
		if b.Contains(h) {
			t.Errorf("handle %v present in both buckets", h)
		}
	})
}

func extrema(b *ConnectionBucket) (max, min float64) {
	first := true
	b.Each(func(_ transport.Handle, rtt float64) {
		if first || rtt > max {
			max = rtt
		}
		if first || rtt < min {
			min = rtt
		}
		first = false
	})
	return max, min
}

func TestControllerConfigStoredNotMutatingAlgorithm(t *testing.T) {
	table := capability.NewTable()
	cfgs := []Config{
		{},
		{EnableCutThrough: true},
		{AcceptUnsolConn: true},
		{EnableRelay: true},
		{EnableCutThrough: true, AcceptUnsolConn: true, EnableRelay: true},
	}

	for i, cfg := range cfgs {
		t.Run(fmt.Sprintf("cfg_%d", i), func(t *testing.T) {
			ps := &fakePubSub{}
			c := New(capability.MASTER, table, ps, newFakeDialer(), []string{"eth"}, cfg)
			c.maxSolConns = 1
			c.solConns.Add(newFakeHandle(1), 100)
			c.solStandbyConns.Add(newFakeHandle(2), 1)
			c.ManageSubscriptions()

			if c.Config() != cfg {
				t.Errorf("Config() = %+v, want %+v", c.Config(), cfg)
			}
			if c.solConns.Len() != 1 {
				t.Errorf("churn outcome should be identical regardless of feature flags, got sol_conns len %d", c.solConns.Len())
			}
		})
	}
}
