// Package presenter drives the Idle -> Parsing -> Ready state machine
// described for the dataset-loading control path: parsing runs on its
// own goroutine and reports back over a completion channel so the
// caller's event loop is never blocked on file I/O.
package presenter

import (
	"errors"
	"sync"

	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/internal/logging"
)

// State is one of the presenter's three states.
type State int

const (
	Idle State = iota
	Parsing
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Parsing:
		return "Parsing"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// ErrParseInProgress is returned by StartParse when a parse is already
// running; at most one parse runs at a time.
var ErrParseInProgress = errors.New("presenter: a parse is already in progress")

// ParseFunc performs one parse and returns the resulting Store. The
// presenter does not know or care which of the three dataset parsers
// produced it — callers close over the dataset-kind-specific parser
// call (tuple.Parse, hierarchical.Parse, tabular.Parse).
type ParseFunc func() (*dataset.Store, error)

// ParseResult is delivered exactly once on the channel StartParse
// returns.
type ParseResult struct {
	Store *dataset.Store
	Err   error
}

// Presenter owns the single Dataset Store currently loaded and the
// state machine gating when transmit operations are allowed.
type Presenter struct {
	mu    sync.Mutex
	state State
	store *dataset.Store
	log   logging.Logger
}

// New builds a Presenter in the Idle state.
func New(log logging.Logger) *Presenter {
	if log == nil {
		log = logging.Default()
	}
	return &Presenter{state: Idle, log: log}
}

// State reports the presenter's current state.
func (p *Presenter) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Store returns the most recently completed parse's Store. ok is false
// until a parse has completed successfully.
func (p *Presenter) Store() (*dataset.Store, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store, p.store != nil
}

// CanStartStreaming reports whether the presenter's state permits
// issuing a start_streaming command: only once a parse has completed
// and produced a Store.
func (p *Presenter) CanStartStreaming() bool {
	return p.State() == Ready
}

// StartParse transitions Idle -> Parsing and runs fn on its own
// goroutine, reporting back on the returned channel exactly once. It
// refuses re-entry while a parse is already running, matching the
// requirement that parses are serialized.
func (p *Presenter) StartParse(fn ParseFunc) (<-chan ParseResult, error) {
	p.mu.Lock()
	if p.state == Parsing {
		p.mu.Unlock()
		return nil, ErrParseInProgress
	}
	p.state = Parsing
	p.mu.Unlock()

	p.log.Info("parse started")
	done := make(chan ParseResult, 1)
	go func() {
		store, err := fn()
		p.mu.Lock()
		if err != nil {
			p.state = Idle
			p.log.Warn("parse failed", logging.Field{Key: "err", Value: err})
		} else {
			p.store = store
			p.state = Ready
			p.log.Info("parse finished", logging.Field{Key: "combinations", Value: store.Len()})
		}
		p.mu.Unlock()
		done <- ParseResult{Store: store, Err: err}
		close(done)
	}()
	return done, nil
}

// Reset drops the loaded Store and returns the presenter to Idle,
// letting a new dataset be loaded in place of the current one.
func (p *Presenter) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.store = nil
	p.state = Idle
}
