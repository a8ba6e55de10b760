package devicecore

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/gosdrtx/radiotx/errs"
)

// SSHConfig describes the parameters required to reach a device's
// sysfs attribute tree over SSH.
type SSHConfig struct {
	Host      string
	User      string
	Password  string
	KeyPath   string
	Port      int
	SysfsRoot string
}

// SSHAttributeWriter writes IIO attributes through a sysfs SSH session
// instead of the IIOD text protocol. Variant A falls back to one of
// these when an IIOD attribute write fails, as it does on older
// firmware builds whose IIOD lacks attribute-write support.
type SSHAttributeWriter struct {
	mu     sync.Mutex
	cfg    SSHConfig
	client *ssh.Client
}

// NewSSHAttributeWriter validates cfg and prepares a writer; the
// actual SSH connection is deferred until the first WriteAttribute
// call.
func NewSSHAttributeWriter(cfg SSHConfig) (*SSHAttributeWriter, error) {
	if cfg.Host == "" {
		return nil, errs.New(errs.InputFormat, "devicecore.NewSSHAttributeWriter: host is required")
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = "/sys/bus/iio/devices"
	}
	return &SSHAttributeWriter{cfg: cfg}, nil
}

// WriteAttribute writes value to the sysfs path derived from the
// (device, channel, attr) triple.
func (w *SSHAttributeWriter) WriteAttribute(ctx context.Context, device, channel, attr, value string) error {
	client, err := w.dial(ctx)
	if err != nil {
		return err
	}

	session, err := client.NewSession()
	if err != nil {
		return errs.Wrap(errs.AttributeIO, "devicecore.SSHAttributeWriter: open session", err)
	}
	defer session.Close()

	target := w.attributePath(device, channel, attr)
	cmd := fmt.Sprintf("printf %s > %s", shellQuote(value), target)
	if err := session.Run(cmd); err != nil {
		return errs.Wrap(errs.AttributeIO, "devicecore.SSHAttributeWriter: write sysfs attribute", err)
	}
	return nil
}

// Close releases the underlying SSH connection, if one was opened.
func (w *SSHAttributeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client == nil {
		return nil
	}
	err := w.client.Close()
	w.client = nil
	return err
}

func (w *SSHAttributeWriter) dial(ctx context.Context) (*ssh.Client, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.client != nil {
		return w.client, nil
	}

	var auth []ssh.AuthMethod
	if w.cfg.Password != "" {
		auth = append(auth, ssh.Password(w.cfg.Password))
	}
	if w.cfg.KeyPath != "" {
		key, err := os.ReadFile(w.cfg.KeyPath)
		if err != nil {
			return nil, errs.Wrap(errs.AttributeIO, "devicecore.SSHAttributeWriter: read key", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, errs.Wrap(errs.AttributeIO, "devicecore.SSHAttributeWriter: parse key", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, errs.New(errs.InputFormat, "devicecore.SSHAttributeWriter: no password or key configured")
	}

	config := &ssh.ClientConfig{
		User:            w.cfg.User,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)
	conn, err := (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.DeviceMissing, "devicecore.SSHAttributeWriter: dial", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return nil, errs.Wrap(errs.DeviceMissing, "devicecore.SSHAttributeWriter: handshake", err)
	}

	w.client = ssh.NewClient(clientConn, chans, reqs)
	return w.client, nil
}

func (w *SSHAttributeWriter) attributePath(device, channel, attr string) string {
	base := filepath.Join(w.cfg.SysfsRoot, device)
	if channel == "" {
		return filepath.Join(base, attr)
	}

	prefix := "in"
	lower := strings.ToLower(channel)
	if strings.HasPrefix(lower, "altvoltage") || strings.HasPrefix(lower, "out_") {
		prefix = "out"
	}
	filename := fmt.Sprintf("%s_%s_%s", prefix, channel, attr)
	return filepath.Join(base, filename)
}

func shellQuote(value string) string {
	escaped := strings.ReplaceAll(value, "'", "'\\''")
	return fmt.Sprintf("'%s'", escaped)
}
