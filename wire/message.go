// Package wire defines the request/response message schema exchanged
// between lock clients and the lock server, plus the frame codec used to
// move them over a net.Conn.
package wire

import "github.com/jathurchan/lockd/types"

// Request is the wire-normative shape of an inbound lock operation. Field
// order and names match the schema fixed by the external interface; the Go
// struct tags are not load-bearing for gob (which encodes by field name) but
// are kept for documentation and for any future JSON debug dump.
type Request struct {
	Key         string        `json:"key"`
	Application string        `json:"application"`
	Thread      string        `json:"thread"`
	Type        types.LockType `json:"type"`
	IsLock      bool          `json:"isLock"`
	TryLock     bool          `json:"tryLock"`
	Time        int64         `json:"time"`
	ReadLock    bool          `json:"readLock"`
	Identity    types.Identity `json:"identity"`
}

// Response is the wire-normative shape of the server's reply to a Request.
// Identity is copied verbatim from the originating Request.
type Response struct {
	Key            string         `json:"key"`
	Identity       types.Identity `json:"identity"`
	Success        bool           `json:"success"`
	Cause          string         `json:"cause"`
	IsLockResponse bool           `json:"isLockResponse"`
}

// ResponseFor builds the Response for req, setting IsLockResponse to the
// inverse of req.IsLock per the wire schema (it marks the ack class, not
// whether the underlying operation is a lock or unlock).
func ResponseFor(req Request, success bool, cause string) Response {
	return Response{
		Key:            req.Key,
		Identity:       req.Identity,
		Success:        success,
		Cause:          cause,
		IsLockResponse: !req.IsLock,
	}
}
