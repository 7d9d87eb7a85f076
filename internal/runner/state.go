package runner

import (
	"errors"
	"fmt"
)

// ErrReportNotFound is returned when the report file does not exist.
var ErrReportNotFound = errors.New("report file not found")

// State is a stage of a run.
type State int

const (
	Created State = iota
	Validated
	Loaded
	Connected
	ParametersBound
	Refreshed
	Exported
	Opened
	Closed
	Failed
)

var stateNames = [...]string{
	Created:         "created",
	Validated:       "validated",
	Loaded:          "loaded",
	Connected:       "connected",
	ParametersBound: "parameters_bound",
	Refreshed:       "refreshed",
	Exported:        "exported",
	Opened:          "opened",
	Closed:          "closed",
	Failed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var stageActions = map[State]string{
	Validated:       "validate request",
	Loaded:          "load report",
	Connected:       "connect report",
	ParametersBound: "bind parameters",
	Refreshed:       "refresh report",
	Exported:        "export report",
	Opened:          "open report",
}

// StageError is a fatal failure while moving to State.
type StageError struct {
	State State
	Err   error
}

func (e *StageError) Error() string {
	action, ok := stageActions[e.State]
	if !ok {
		action = e.State.String()
	}
	return action + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }
