package iiod

import (
	"context"
	"errors"
	"testing"
)

type fakeBackend struct {
	readAttrCalls  int
	failReadsUntil int
	readValue      string

	writeErr error
	devices  []string
	channels []string

	openedID   int
	writtenBuf []byte
	closed     bool
}

func (f *fakeBackend) ListDevices(ctx context.Context) ([]string, error) { return f.devices, nil }
func (f *fakeBackend) GetChannels(ctx context.Context, device string) ([]string, error) {
	return f.channels, nil
}

func (f *fakeBackend) ReadAttr(ctx context.Context, device, channel, attr string) (string, error) {
	f.readAttrCalls++
	if f.readAttrCalls <= f.failReadsUntil {
		return "", errors.New("transient failure")
	}
	return f.readValue, nil
}

func (f *fakeBackend) WriteAttr(ctx context.Context, device, channel, attr, value string) error {
	return f.writeErr
}

func (f *fakeBackend) OpenBuffer(ctx context.Context, device string, samples int, cyclic bool) (int, error) {
	f.openedID = 7
	return f.openedID, nil
}

func (f *fakeBackend) WriteBuffer(ctx context.Context, bufID int, data []byte) error {
	f.writtenBuf = data
	return nil
}

func (f *fakeBackend) CloseBuffer(ctx context.Context, bufID int) error {
	f.closed = true
	return nil
}

func (f *fakeBackend) Close() error { return nil }

func TestClientReadAttrRetriesTransientFailures(t *testing.T) {
	backend := &fakeBackend{failReadsUntil: 2, readValue: "42"}
	c := &Client{backend: backend}

	value, err := c.ReadAttr(context.Background(), "ad9361-phy", "", "sampling_frequency")
	if err != nil {
		t.Fatalf("ReadAttr: %v", err)
	}
	if value != "42" {
		t.Errorf("value = %q, want %q", value, "42")
	}
	if backend.readAttrCalls < 3 {
		t.Errorf("readAttrCalls = %d, want at least 3", backend.readAttrCalls)
	}
}

func TestClientReadAttrGivesUpAfterMaxRetries(t *testing.T) {
	backend := &fakeBackend{failReadsUntil: 1000, readValue: "42"}
	c := &Client{backend: backend}

	_, err := c.ReadAttr(context.Background(), "ad9361-phy", "", "sampling_frequency")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestBufferLifecycle(t *testing.T) {
	backend := &fakeBackend{}
	c := &Client{backend: backend}

	buf, err := c.OpenBuffer(context.Background(), "cf-ad9361-dds-core-lpc", 1024, true)
	if err != nil {
		t.Fatalf("OpenBuffer: %v", err)
	}
	if buf.id != 7 {
		t.Errorf("buf.id = %d, want 7", buf.id)
	}

	payload := []byte{1, 2, 3, 4}
	if err := buf.Push(context.Background(), payload); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if len(backend.writtenBuf) != len(payload) {
		t.Errorf("writtenBuf length = %d, want %d", len(backend.writtenBuf), len(payload))
	}

	if err := buf.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !backend.closed {
		t.Error("expected backend CloseBuffer to be called")
	}

	// Closing again must be a safe no-op.
	if err := buf.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
