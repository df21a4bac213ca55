package watcher

import (
	"context"
	"time"

	"github.com/depscope/depscope/pkg/logging"
)

// Debouncer coalesces bursts of change events into one. An event is
// held until the input has been quiet for quietPeriod, but never
// longer than maxWait, so a steady trickle of saves still re-analyzes.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer over an event channel.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing on its own goroutine. Cancelling ctx flushes
// pending paths and closes Output.
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// Output returns the channel of coalesced events.
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func (d *Debouncer) run(ctx context.Context) {
	newStoppedTimer := func() *time.Timer {
		t := time.NewTimer(0)
		if !t.Stop() {
			<-t.C
		}
		return t
	}
	quiet := newStoppedTimer()
	maxWait := newStoppedTimer()

	var pending []string
	waiting := false

	stopTimer := func(t *time.Timer) {
		if !t.Stop() {
			select {
			case <-t.C:
			default:
			}
		}
	}
	flush := func() {
		if len(pending) == 0 {
			return
		}
		logging.Debug("flushing coalesced changes", "paths", len(pending))
		d.output <- ChangeEvent{Paths: dedup(pending), Timestamp: time.Now()}
		pending = nil
		waiting = false
		stopTimer(quiet)
		stopTimer(maxWait)
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}
			pending = append(pending, event.Paths...)
			stopTimer(quiet)
			quiet.Reset(d.quietPeriod)
			if !waiting {
				// The max-wait clock starts at the first event of a
				// burst and is not pushed back by later ones.
				maxWait.Reset(d.maxWait)
				waiting = true
			}

		case <-quiet.C:
			flush()

		case <-maxWait.C:
			flush()
		}
	}
}

// dedup removes repeated paths, keeping first-occurrence order.
func dedup(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
