package relay

// Config holds the feature flags the reference implementation resolves
// at compile time. None of the three changes the churn algorithm in
// ManageSubscriptions; they are stored and exposed for components
// outside this package's scope (cut-through transport, unsolicited
// connection acceptance, relay participation) to consult.
type Config struct {
	EnableCutThrough bool
	AcceptUnsolConn  bool
	EnableRelay      bool
}

// DefaultChannels is the fixed starting channel list the reference
// hard-codes. Controller accepts any channel set at construction.
var DefaultChannels = []string{"eth"}
