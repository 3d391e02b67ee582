package syncer

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/dmitrijs2005/raddo/internal/logging"
)

// State is the lifecycle state of one missing file.
type State string

const (
	StatePending        State = "pending"
	StateTryingPrimary  State = "trying_primary"
	StateTryingFallback State = "trying_fallback"
	StateSucceeded      State = "succeeded"
	StateCovered        State = "covered"
	StateFailed         State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCovered || s == StateFailed
}

const (
	eventBegin          = "begin"
	eventNotFound       = "not_found"
	eventFallbackFailed = "fallback_failed"
	eventSucceed        = "succeed"
	eventGiveUp         = "give_up"
	eventCover          = "cover"
)

// fileMachine wraps the transition table of one file.
type fileMachine struct {
	name string
	fsm  *fsm.FSM
}

func newFileMachine(name string, logger logging.Logger) *fileMachine {
	trying := []string{string(StateTryingPrimary), string(StateTryingFallback)}

	m := &fileMachine{name: name}
	m.fsm = fsm.NewFSM(
		string(StatePending),
		fsm.Events{
			{Name: eventBegin, Src: []string{string(StatePending)}, Dst: string(StateTryingPrimary)},
			{Name: eventCover, Src: []string{string(StatePending)}, Dst: string(StateCovered)},
			{Name: eventNotFound, Src: []string{string(StateTryingPrimary)}, Dst: string(StateTryingFallback)},
			{Name: eventFallbackFailed, Src: []string{string(StateTryingFallback)}, Dst: string(StateTryingPrimary)},
			{Name: eventSucceed, Src: trying, Dst: string(StateSucceeded)},
			{Name: eventGiveUp, Src: trying, Dst: string(StateFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(ctx context.Context, e *fsm.Event) {
				logger.Debug(ctx, "file state changed", "file", name, "event", e.Event, "from", e.Src, "to", e.Dst)
			},
		},
	)
	return m
}

// fire applies event. Transitions are bookkeeping only, so they ignore
// cancellation of ctx; the engine checks it around network calls.
func (m *fileMachine) fire(ctx context.Context, event string) error {
	if err := m.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("%s: %s in state %s: %w", m.name, event, m.fsm.Current(), err)
	}
	return nil
}

func (m *fileMachine) current() State {
	return State(m.fsm.Current())
}
