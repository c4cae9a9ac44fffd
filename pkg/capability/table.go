// Package capability holds the protocol tag registry: the mapping from a
// 32-bit protocol tag to the policy a relay topology controller applies for
// peers advertising it.
package capability

// Tag is a 32-bit protocol identifier, advertised by a node in its
// LISTPROTO response and carried in pub/sub peer announcements.
type Tag uint32

// Well-known tags used by the sample deployment.
const (
	// MASTER identifies a master relay: a topology controller willing to
	// accept up to 50 active solicited connections.
	MASTER Tag = 0x10000000
	// RELAY identifies a secondary relay, capped at a single active
	// solicited connection.
	RELAY Tag = 0x10000001
	// CLIENT identifies a leaf node. Leaf nodes do not act as topology
	// controllers; looking CLIENT up still succeeds so a discovery
	// client's protocol filter can recognize it.
	CLIENT Tag = 0x10000002
)

// Policy is the per-tag capability record.
type Policy struct {
	MaxSolConns int
}

// Table is the protocol tag -> policy registry. The zero value has no
// entries; use NewTable for the sample deployment's well-known tags.
type Table struct {
	policies map[Tag]Policy
}

// NewTable returns a Table pre-populated with the sample deployment's
// MASTER, RELAY, and CLIENT tags.
func NewTable() *Table {
	t := &Table{policies: make(map[Tag]Policy)}
	t.Set(MASTER, Policy{MaxSolConns: 50})
	t.Set(RELAY, Policy{MaxSolConns: 1})
	t.Set(CLIENT, Policy{MaxSolConns: 0})
	return t
}

// Set installs or replaces the policy for tag.
func (t *Table) Set(tag Tag, p Policy) {
	t.policies[tag] = p
}

// Lookup returns the policy registered for tag, and whether one was found.
func (t *Table) Lookup(tag Tag) (Policy, bool) {
	p, ok := t.policies[tag]
	return p, ok
}

// IsTopologyController reports whether tag is one a relay.Controller
// actively manages (MASTER or RELAY), as opposed to an inert leaf tag.
func IsTopologyController(tag Tag) bool {
	return tag == MASTER || tag == RELAY
}
