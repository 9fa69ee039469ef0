package sdk

import (
	"fmt"
	"os"
	"os/signal"
)

// HostEventKind classifies a host event.
type HostEventKind int

const (
	// HostError reports a failure the host wants captured.
	HostError HostEventKind = iota
	// HostShutdown reports that the process is terminating.
	HostShutdown
)

// HostEvent is something that happened in the host application.
type HostEvent struct {
	Kind HostEventKind
	Err  error
}

// SignalSource feeds host events into a Client. Subscribe registers a
// handler and returns a function that unregisters it.
type SignalSource interface {
	Subscribe(func(HostEvent)) (unsubscribe func())
}

// osSignalSource adapts OS termination signals to shutdown events.
type osSignalSource struct {
	signals []os.Signal
}

// OSSignals returns a SignalSource that emits a HostShutdown event when
// any of the given OS signals arrives, letting the client flush before the
// process exits. The signal is observed, not consumed: the host's own
// handlers still run.
func OSSignals(signals ...os.Signal) SignalSource {
	return &osSignalSource{signals: signals}
}

func (s *osSignalSource) Subscribe(handler func(HostEvent)) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, s.signals...)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-ch:
				handler(HostEvent{Kind: HostShutdown, Err: fmt.Errorf("received %v", sig)})
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}
