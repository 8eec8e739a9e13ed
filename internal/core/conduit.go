package core

import "errors"

// ErrConduitClosed reports a send attempted after the conduit shut down.
var ErrConduitClosed = errors.New("conduit closed")

// Conduit is the outbound half of one participant's signaling
// connection. TrySend must never block: a full or closed transport is
// reported as an error, not waited out. Close is idempotent.
type Conduit interface {
	TrySend(data []byte) error
	Close()
}
