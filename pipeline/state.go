package pipeline

import (
	"fmt"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

type State string

const (
	StateStart                 State = "start"
	StateClassifying           State = "classifying"
	StateGreeting              State = "greeting"
	StateGeneral               State = "general"
	StateMedicalPending        State = "medical_pending"
	StateDepartmentClassifying State = "department_classifying"
	StateRecommending          State = "recommending"
	StateDone                  State = "done"
	StateErrored               State = "errored"
)

var transitions = map[State][]State{
	StateStart:                 {StateClassifying},
	StateClassifying:           {StateGreeting, StateGeneral, StateMedicalPending},
	StateGreeting:              {StateDone},
	StateGeneral:               {StateDone},
	StateMedicalPending:        {StateDepartmentClassifying},
	StateDepartmentClassifying: {StateRecommending},
	StateRecommending:          {StateDone},
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateErrored
}

// CanTransition reports whether from → to is a legal step. Every non-terminal
// state may move to StateErrored.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateErrored {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// run is the state of a single request. It is never shared between requests.
type run struct {
	id     string
	state  State
	states []State
}

func newRun(id string) *run {
	return &run{id: id, state: StateStart, states: []State{StateStart}}
}

func (r *run) transition(to State) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("pipeline: illegal transition %s -> %s", r.state, to)
	}
	logger.Info("Pipeline transition",
		zap.String("requestId", r.id),
		zap.String("from", string(r.state)),
		zap.String("to", string(to)))
	r.state = to
	r.states = append(r.states, to)
	return nil
}
