package gateway

import "github.com/sailgo/n2k-gateway/pgn"

// Listener is the driver's notify(message) sink (spec.md §6). Notify is
// called twice per message: once keyed by the message's real PGN, once
// keyed by the wildcard PGN (pgn.Wildcard) for "all messages" subscribers.
// Implementations must not block; the driver calls Notify synchronously
// from its single event loop.
type Listener interface {
	Notify(msg pgn.Message)
}

// Stats is the statistics surface spec.md §6 says the host polls every 2
// seconds.
type Stats struct {
	Bus         string
	Iface       string
	RxByteCount uint64
	TxByteCount uint64
	Available   bool
}
