// Package iiod implements a minimal client for the industrial I/O
// daemon's line-oriented wire protocol: attribute read/write, device
// and channel discovery, and cyclic DMA buffer control.
package iiod

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/gosdrtx/radiotx/internal/logging"
)

// Backend is the wire-protocol contract a transport implementation
// must satisfy. A single Client talks to exactly one Backend for its
// whole lifetime; there is no runtime backend switching.
type Backend interface {
	ListDevices(ctx context.Context) ([]string, error)
	GetChannels(ctx context.Context, device string) ([]string, error)
	ReadAttr(ctx context.Context, device, channel, attr string) (string, error)
	WriteAttr(ctx context.Context, device, channel, attr, value string) error

	OpenBuffer(ctx context.Context, device string, samples int, cyclic bool) (int, error)
	WriteBuffer(ctx context.Context, bufID int, data []byte) error
	CloseBuffer(ctx context.Context, bufID int) error

	Close() error
}

// Client is a connected handle to one IIOD context.
type Client struct {
	uri     string
	backend Backend
	log     logging.Logger
}

// dialTimeout bounds a single TCP connection attempt; retries are
// handled one layer up by Dial's backoff loop.
const dialTimeout = 3 * time.Second

// Dial opens a transport context at uri, retrying the TCP connect with
// exponential backoff (the device may still be booting its network
// stack after power-up). uri is a bare "host:port" address; the
// higher-level scan-context URI forms (usb:, ip:, local:) are resolved
// to this form by the caller before Dial is invoked.
func Dial(ctx context.Context, uri string) (*Client, error) {
	log := logging.Default().With(logging.Field{Key: "uri", Value: uri})

	var conn net.Conn
	operation := func() error {
		d := net.Dialer{Timeout: dialTimeout}
		c, err := d.DialContext(ctx, "tcp", uri)
		if err != nil {
			log.Warn("iiod dial attempt failed", logging.Field{Key: "err", Value: err})
			return err
		}
		conn = c
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("connect to iiod at %s: %w", uri, err)
	}

	return &Client{
		uri:     uri,
		backend: newTextBackend(conn),
		log:     log,
	}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

func (c *Client) ListDevices(ctx context.Context) ([]string, error) {
	return c.backend.ListDevices(ctx)
}

func (c *Client) GetChannels(ctx context.Context, device string) ([]string, error) {
	return c.backend.GetChannels(ctx, device)
}

// ReadAttr reads one attribute from the bus, retrying transient I/O
// failures a bounded number of times before giving up.
func (c *Client) ReadAttr(ctx context.Context, device, channel, attr string) (string, error) {
	var value string
	operation := func() error {
		v, err := c.backend.ReadAttr(ctx, device, channel, attr)
		if err != nil {
			return err
		}
		value = v
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", fmt.Errorf("read attr %s/%s/%s: %w", device, channel, attr, err)
	}
	return value, nil
}

// WriteAttr writes one attribute to the bus, retrying transient I/O
// failures a bounded number of times before giving up.
func (c *Client) WriteAttr(ctx context.Context, device, channel, attr, value string) error {
	operation := func() error {
		return c.backend.WriteAttr(ctx, device, channel, attr, value)
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("write attr %s/%s/%s: %w", device, channel, attr, err)
	}
	return nil
}

// Buffer is a handle to one open cyclic DMA buffer. It is single-owner:
// Close must be called before a new Buffer is opened on the same
// device.
type Buffer struct {
	id     int
	device string
	client *Client
}

// OpenBuffer allocates a cyclic (or one-shot) DMA buffer of the given
// sample count on device.
func (c *Client) OpenBuffer(ctx context.Context, device string, samples int, cyclic bool) (*Buffer, error) {
	id, err := c.backend.OpenBuffer(ctx, device, samples, cyclic)
	if err != nil {
		return nil, fmt.Errorf("open buffer on %s: %w", device, err)
	}
	return &Buffer{id: id, device: device, client: c}, nil
}

// Push writes the full buffer payload once. For a cyclic buffer the
// hardware then replays it indefinitely.
func (b *Buffer) Push(ctx context.Context, data []byte) error {
	if b == nil || b.client == nil {
		return errors.New("buffer not open")
	}
	return b.client.backend.WriteBuffer(ctx, b.id, data)
}

// Close releases the buffer. It is safe to call multiple times.
func (b *Buffer) Close(ctx context.Context) error {
	if b == nil || b.client == nil {
		return nil
	}
	err := b.client.backend.CloseBuffer(ctx, b.id)
	b.client = nil
	return err
}
