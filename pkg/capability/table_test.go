package capability

import "testing"

func TestNewTableWellKnownTags(t *testing.T) {
	tbl := NewTable()

	tests := []struct {
		name        string
		tag         Tag
		wantMax     int
		wantTopCtrl bool
	}{
		{"master", MASTER, 50, true},
		{"relay", RELAY, 1, true},
		{"client", CLIENT, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := tbl.Lookup(tt.tag)
			if !ok {
				t.Fatalf("tag %#x not found", tt.tag)
			}
			if p.MaxSolConns != tt.wantMax {
				t.Errorf("MaxSolConns = %d, want %d", p.MaxSolConns, tt.wantMax)
			}
			if IsTopologyController(tt.tag) != tt.wantTopCtrl {
				t.Errorf("IsTopologyController(%#x) = %v, want %v", tt.tag, !tt.wantTopCtrl, tt.wantTopCtrl)
			}
		})
	}
}

func TestLookupUnknownTag(t *testing.T) {
	tbl := NewTable()
	if _, ok := tbl.Lookup(Tag(0xFFFFFFFF)); ok {
		t.Error("expected lookup of an unregistered tag to fail")
	}
}

func TestSetOverridesPolicy(t *testing.T) {
	tbl := NewTable()
	tbl.Set(MASTER, Policy{MaxSolConns: 10})
	p, ok := tbl.Lookup(MASTER)
	if !ok || p.MaxSolConns != 10 {
		t.Errorf("got %+v ok=%v, want MaxSolConns=10", p, ok)
	}
}
