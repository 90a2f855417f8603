package lifecycle

import (
	"errors"
	"fmt"
	"io"

	"github.com/rileyhales/tethys/pkg/catalog"
)

// Action names the engine operation an Outcome describes
type Action string

const (
	ActionPull   Action = "pull"
	ActionCreate Action = "create"
	ActionStart  Action = "start"
	ActionStop   Action = "stop"
	ActionRemove Action = "remove"
)

// Result classifies what happened to one service
type Result int

const (
	// Applied means the engine call was made and succeeded
	Applied Result = iota
	// AlreadyInState means nothing had to be done
	AlreadyInState
	// NotInstalled means the service has no container; never an error
	NotInstalled
	// Failed means the engine call returned an error
	Failed
)

func (r Result) String() string {
	switch r {
	case Applied:
		return "applied"
	case AlreadyInState:
		return "already_in_state"
	case NotInstalled:
		return "not_installed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Outcome is the result of one action on one service
type Outcome struct {
	Service catalog.ServiceID
	Action  Action
	Result  Result
	// Image is set for pull and create outcomes
	Image string
	Err   error
}

// Report collects outcomes in the order they happened
type Report struct {
	Outcomes []Outcome
	// Silent asks renderers to omit AlreadyInState and NotInstalled lines
	Silent bool
}

// Err joins every failure, nil when nothing failed
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Result == Failed {
			errs = append(errs, fmt.Errorf("%s %s: %w", o.Action, o.Service, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed reports whether any outcome failed
func (r Report) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Result == Failed {
			return true
		}
	}
	return false
}

// Count returns how many outcomes have the given result
func (r Report) Count(res Result) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Result == res {
			n++
		}
	}
	return n
}

// Lookup returns the last outcome of action for a service
func (r Report) Lookup(id catalog.ServiceID, action Action) (Outcome, bool) {
	for i := len(r.Outcomes) - 1; i >= 0; i-- {
		o := r.Outcomes[i]
		if o.Service == id && o.Action == action {
			return o, true
		}
	}
	return Outcome{}, false
}

// Merge appends the outcomes of other
func (r *Report) Merge(other Report) {
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
}

// Settings supplies the per-service values a container is created with
type Settings interface {
	Environment(id catalog.ServiceID) []string
	HostPort(id catalog.ServiceID) int
}

// ProgressSink renders the event stream of one image pull
type ProgressSink interface {
	Render(image string, stream io.Reader) error
}

// Observer is notified of every outcome as it is recorded
type Observer interface {
	Observe(Outcome)
}

type discard struct{}

func (discard) Render(_ string, stream io.Reader) error {
	_, err := io.Copy(io.Discard, stream)
	return err
}
