package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single decoded frame to guard against a corrupt or
// hostile length prefix causing an unbounded allocation.
const MaxFrameSize = 4 << 20 // 4 MiB

// WriteRequest writes req to w as one length-prefixed gob frame. Safe to call
// concurrently with reads on the same connection but not with other writes;
// callers needing concurrent writers must serialize their own writes (the
// client connection pool does this per-connection).
func WriteRequest(w io.Writer, req Request) error {
	return writeFrame(w, req)
}

// ReadRequest reads one length-prefixed gob frame from r and decodes it as a
// Request.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	if err := readFrame(r, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// WriteResponse writes resp to w as one length-prefixed gob frame.
func WriteResponse(w io.Writer, resp Response) error {
	return writeFrame(w, resp)
}

// ReadResponse reads one length-prefixed gob frame from r and decodes it as a
// Response.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	if err := readFrame(r, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// writeFrame gob-encodes v and writes it as a 4-byte big-endian length prefix
// followed by the payload.
func writeFrame(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("wire: encode frame: %w", err)
	}
	if buf.Len() > MaxFrameSize {
		return fmt.Errorf("wire: encoded frame of %d bytes exceeds max %d", buf.Len(), MaxFrameSize)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(buf.Len()))
	if _, err := w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// readFrame reads a 4-byte big-endian length prefix followed by that many
// bytes of gob-encoded payload and decodes it into v.
func readFrame(r io.Reader, v any) error {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])
	if n > MaxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds max %d", n, MaxFrameSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("wire: read frame payload: %w", err)
	}
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("wire: decode frame: %w", err)
	}
	return nil
}
