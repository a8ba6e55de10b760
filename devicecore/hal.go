package devicecore

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/iiod"
	"github.com/gosdrtx/radiotx/internal/logging"
	"github.com/gosdrtx/radiotx/internal/mdns"
)

// browseFunc matches mdns.DiscoverIIOD's signature; tests substitute
// a fake to avoid touching the network.
type browseFunc func(timeoutSeconds int) ([]mdns.Host, error)

// Context describes one discovered or configured transmit endpoint.
type Context struct {
	URI         string
	Description string
}

// HAL is the Transmit Hardware Abstraction Layer: it discovers
// contexts, selects and initializes the variant for one of them, and
// tears the old variant down before switching to a new one. It does not
// forward parameter or streaming operations itself: SelectContext and
// Active return the Core, and callers invoke it directly.
type HAL struct {
	browse      browseFunc
	log         logging.Logger
	active      Core
	client      *iiod.Client
	sshFallback *SSHAttributeWriter
}

func NewHAL(log logging.Logger) *HAL {
	if log == nil {
		log = logging.Default()
	}
	return &HAL{browse: mdns.DiscoverIIOD, log: log}
}

// SetSSHFallback registers an SSH sysfs attribute writer that variant A
// falls back to when the IIOD text backend rejects a WRITE command. It
// takes effect the next time SelectContext picks variant A; it has no
// effect on a variant already selected.
func (h *HAL) SetSSHFallback(w *SSHAttributeWriter) { h.sshFallback = w }

// Discover returns every context the caller's static list plus the
// mDNS browser together report, deduplicated by URI. Static entries
// are passed through verbatim; the HAL does not validate them until
// SelectContext is called. A mdnsTimeoutSeconds of zero or less skips
// the network browse and returns the static list unchanged.
func (h *HAL) Discover(static []Context, mdnsTimeoutSeconds int) ([]Context, error) {
	seen := make(map[string]bool, len(static))
	out := make([]Context, 0, len(static))
	for _, c := range static {
		if !seen[c.URI] {
			seen[c.URI] = true
			out = append(out, c)
		}
	}

	if h.browse == nil || mdnsTimeoutSeconds <= 0 {
		return out, nil
	}
	hosts, err := h.browse(mdnsTimeoutSeconds)
	if err != nil {
		return out, errs.Wrap(errs.DeviceMissing, "devicecore.Discover: mdns browse", err)
	}
	for _, host := range hosts {
		if len(host.Addresses) == 0 {
			continue
		}
		uri := fmt.Sprintf("%s:%d", host.Addresses[0].String(), host.Port)
		if seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, Context{URI: uri, Description: host.Instance})
	}
	return out, nil
}

// defaultIPContext is the fallback context probed when nothing else
// is discovered, as wideband and mixed-signal eval boards commonly
// come up at this static address out of the box.
const defaultIPContext = "ip:10.0.0.2"

// ProbeDefaultIP dials the default IP context and, if a known variant
// family's devices are present, returns a Context describing it. It
// returns ok == false (with a nil error) if the probe can't connect or
// doesn't match any known variant — that is not treated as a failure,
// since probing an address nothing is listening on is the expected
// common case.
func ProbeDefaultIP(ctx context.Context) (Context, bool, error) {
	addr, err := resolveDialAddress(defaultIPContext)
	if err != nil {
		return Context{}, false, err
	}
	client, err := iiod.Dial(ctx, addr)
	if err != nil {
		return Context{}, false, nil
	}
	defer client.Close()

	devices, err := client.ListDevices(ctx)
	if err != nil {
		return Context{}, false, nil
	}
	description := strings.Join(devices, " ")
	if !matchesVariantBOrC(strings.ToLower(description)) {
		return Context{}, false, nil
	}
	return Context{URI: defaultIPContext, Description: description}, true, nil
}

// matchesVariantBOrC reports whether lower names a variant B or C
// device. The default-IP probe only ever fires for those two families:
// variant A (AD936x/Pluto) boards are reachable over USB or mDNS and
// are never expected to sit at the fallback IP unconfigured.
func matchesVariantBOrC(lower string) bool {
	for _, m := range variantMatchers {
		if m.family == variantFamilyA {
			continue
		}
		if m.match(lower) {
			return true
		}
	}
	return false
}

// variantFamily distinguishes which Core implementation a matcher
// builds, so callers like matchesVariantBOrC can filter the table by
// family without re-deriving it from the build closure.
type variantFamily int

const (
	variantFamilyA variantFamily = iota
	variantFamilyB
	variantFamilyC
)

// variantMatchers maps a case-insensitive match rule against a
// context's description to the variant family it identifies. The
// AD936* family (AD9361, AD9363, AD9364, ...) all share variant A's
// register layout, so that entry matches on the "ad936" stem rather
// than the one literal part number; AD9081 and AD9082 share the same
// control-device naming and so share variant C.
var variantMatchers = []struct {
	family variantFamily
	match  func(lower string) bool
	build  func(*iiod.Client) Core
}{
	{variantFamilyA, func(lower string) bool { return strings.Contains(lower, "ad936") }, func(c *iiod.Client) Core { return newVariantA(c) }},
	{variantFamilyA, func(lower string) bool { return strings.Contains(lower, "pluto") }, func(c *iiod.Client) Core { return newVariantA(c) }},
	{variantFamilyB, func(lower string) bool { return strings.Contains(lower, "adrv9009") }, func(c *iiod.Client) Core { return newVariantB(c) }},
	{variantFamilyC, func(lower string) bool { return strings.Contains(lower, "ad9081") }, func(c *iiod.Client) Core { return newVariantC(c) }},
	{variantFamilyC, func(lower string) bool { return strings.Contains(lower, "ad9082") }, func(c *iiod.Client) Core { return newVariantC(c) }},
}

func variantFor(description string, client *iiod.Client) (Core, error) {
	lower := strings.ToLower(description)
	for _, m := range variantMatchers {
		if m.match(lower) {
			return m.build(client), nil
		}
	}
	return nil, errs.New(errs.DeviceMissing, "devicecore: no known variant matches context description "+description)
}

// defaultIODPort is the IIOD network backend's well-known TCP port.
const defaultIODPort = 30431

// resolveDialAddress translates a scan-context URI (usb:…, ip:…,
// local:) into the bare "host:port" form iiod.Dial expects. usb:
// contexts have no network-reachable daemon and are rejected; ip: and
// local: resolve to the IIOD daemon's well-known port on the given or
// loopback host. Anything already in host:port form (as produced by
// the mDNS browser) passes through unchanged.
func resolveDialAddress(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, "usb:"):
		return "", errs.New(errs.DeviceMissing, "devicecore: usb contexts are not reachable over the network transport")
	case strings.HasPrefix(uri, "ip:"):
		return fmt.Sprintf("%s:%d", strings.TrimPrefix(uri, "ip:"), defaultIODPort), nil
	case strings.HasPrefix(uri, "local:"):
		return fmt.Sprintf("localhost:%d", defaultIODPort), nil
	default:
		return uri, nil
	}
}

// SelectContext tears down whatever variant is active, dials the new
// context's URI, identifies its variant family from the description,
// and initializes it. On any failure the HAL is left with no active
// variant.
func (h *HAL) SelectContext(ctx context.Context, c Context) (Core, error) {
	if err := h.TeardownActive(ctx); err != nil {
		return nil, err
	}

	addr, err := resolveDialAddress(c.URI)
	if err != nil {
		return nil, err
	}
	client, err := iiod.Dial(ctx, addr)
	if err != nil {
		return nil, errs.Wrap(errs.DeviceMissing, "devicecore.SelectContext: dial", err)
	}

	core, err := variantFor(c.Description, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	if a, ok := core.(*variantA); ok && h.sshFallback != nil {
		a.SetSSHFallback(h.sshFallback)
	}

	if err := core.Initialize(ctx, c.URI); err != nil {
		_ = client.Close()
		return nil, errs.Wrap(errs.DeviceMissing, "devicecore.SelectContext: initialize", err)
	}

	h.client = client
	h.active = core
	h.log.Info("selected context", logging.Field{Key: "uri", Value: c.URI}, logging.Field{Key: "description", Value: c.Description})
	return core, nil
}

// TeardownActive releases the currently active variant, if any. Safe
// to call when nothing is active.
func (h *HAL) TeardownActive(ctx context.Context) error {
	if h.active == nil {
		return nil
	}
	if err := h.active.Teardown(ctx); err != nil {
		return errs.Wrap(errs.DeviceMissing, "devicecore.TeardownActive", err)
	}
	if h.client != nil {
		_ = h.client.Close()
	}
	h.active = nil
	h.client = nil
	return nil
}

// Active returns the currently selected variant, or nil if none is
// selected.
func (h *HAL) Active() Core { return h.active }

// PlanSamplingFrequency scales the active variant's reference sampling
// frequency (DefaultSamplingFrequency, not SamplingFrequencyRange().Min)
// by the ratio of frameLength to dataset.MinFrameLength(), clamped to
// the variant's sampling frequency range as a ceiling/floor. A dataset
// whose frames are longer than the minimum known frame length drives a
// proportionally higher TX sample rate so playback duration per frame
// stays constant across dataset kinds. For a variant whose rate is
// fixed (DefaultSamplingFrequency equals both ends of its range), the
// clamp makes this a no-op regardless of the computed ratio.
func PlanSamplingFrequency(core Core, frameLength int) (int64, error) {
	if core == nil {
		return 0, errs.New(errs.DeviceMissing, "devicecore.PlanSamplingFrequency: no active variant")
	}
	minLen := dataset.MinFrameLength()
	if minLen <= 0 || frameLength <= 0 {
		return 0, errs.New(errs.InputFormat, "devicecore.PlanSamplingFrequency: invalid frame length")
	}

	rng := core.SamplingFrequencyRange()
	base := core.DefaultSamplingFrequency()
	scaled := base * int64(frameLength) / int64(minLen)

	if scaled < rng.Min {
		scaled = rng.Min
	}
	if scaled > rng.Max {
		scaled = rng.Max
	}
	return scaled, nil
}
