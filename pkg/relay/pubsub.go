package relay

import "github.com/openweaver/relaymesh/pkg/transport"

// PubSub is the channel subscription contract the controller drives.
// The concrete pub/sub node is outside this module's scope (spec §1);
// Controller only needs to issue SUBSCRIBE/UNSUBSCRIBE per channel.
type PubSub interface {
	Subscribe(h transport.Handle, channel string)
	Unsubscribe(h transport.Handle, channel string)
}
