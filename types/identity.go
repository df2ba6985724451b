package types

// Identity is the 64-bit, client-unique sequence number that correlates a
// Request with its Response. A client must never reuse an identity for two
// requests still in flight.
type Identity int64
