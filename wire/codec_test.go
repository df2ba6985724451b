package wire

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/jathurchan/lockd/types"
)

func TestRequestRoundTrip(t *testing.T) {
	req := Request{
		Key:         "k1",
		Application: "app-a",
		Thread:      "thread-1",
		Type:        types.Timeout,
		IsLock:      true,
		TryLock:     false,
		Time:        1500,
		ReadLock:    false,
		Identity:    types.Identity(42),
	}

	var buf bytes.Buffer
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}

	got, err := ReadRequest(&buf)
	if err != nil {
		t.Fatalf("ReadRequest: %v", err)
	}
	if got != req {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, req)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	resp := Response{
		Key:            "k1",
		Identity:       types.Identity(7),
		Success:        false,
		Cause:          types.CauseLockedAlready,
		IsLockResponse: true,
	}

	var buf bytes.Buffer
	if err := WriteResponse(&buf, resp); err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}

	got, err := ReadResponse(&buf)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got != resp {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, resp)
	}
}

func TestMultipleFramesOnOneStream(t *testing.T) {
	var buf bytes.Buffer
	reqs := []Request{
		{Key: "a", Identity: types.Identity(1)},
		{Key: "b", Identity: types.Identity(2)},
		{Key: "c", Identity: types.Identity(3)},
	}
	for _, r := range reqs {
		if err := WriteRequest(&buf, r); err != nil {
			t.Fatalf("WriteRequest: %v", err)
		}
	}

	for _, want := range reqs {
		got, err := ReadRequest(&buf)
		if err != nil {
			t.Fatalf("ReadRequest: %v", err)
		}
		if got.Key != want.Key || got.Identity != want.Identity {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}

func TestReadRequest_EOFOnEmptyStream(t *testing.T) {
	_, err := ReadRequest(&bytes.Buffer{})
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestResponseFor(t *testing.T) {
	req := Request{Key: "k", Identity: types.Identity(5), IsLock: true}
	resp := ResponseFor(req, true, types.CauseSucceed)

	if resp.Key != req.Key || resp.Identity != req.Identity {
		t.Errorf("ResponseFor did not copy key/identity: %+v", resp)
	}
	if resp.IsLockResponse {
		t.Errorf("IsLockResponse should be false for an IsLock=true request, got true")
	}
	if !resp.Success || resp.Cause != "" {
		t.Errorf("unexpected success/cause: %+v", resp)
	}

	unlockReq := Request{Key: "k", Identity: types.Identity(6), IsLock: false}
	unlockResp := ResponseFor(unlockReq, true, types.CauseSucceed)
	if !unlockResp.IsLockResponse {
		t.Errorf("IsLockResponse should be true for an IsLock=false request, got false")
	}
}
