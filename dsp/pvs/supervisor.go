package pvs

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Stage names one element of the pipeline.
type Stage int

const (
	StageFramer Stage = iota
	StageAnalyzer
	StageEffect
	StageResynth
	StageBridge

	numStages
)

var stageNames = [numStages]string{"framer", "analyzer", "effect", "resynth", "bridge"}

// Stages returns every stage in pipeline order.
func Stages() []Stage {
	return []Stage{StageFramer, StageAnalyzer, StageEffect, StageResynth, StageBridge}
}

func (s Stage) String() string {
	if s >= 0 && s < numStages {
		return stageNames[s]
	}

	return fmt.Sprintf("stage(%d)", int(s))
}

// Supervisor tracks the status of every stage and latches a permanent halt
// once any stage fails. Status and Halted are safe to call from any
// goroutine; Halted is lock-free.
type Supervisor struct {
	status [numStages]atomic.Int32
	halted atomic.Bool

	mu   sync.Mutex
	errs [numStages]error
}

// NewSupervisor returns a supervisor with every stage NotInitialized.
func NewSupervisor() *Supervisor {
	s := &Supervisor{}
	for i := range s.status {
		s.status[i].Store(int32(StatusNotInitialized))
	}

	return s
}

// Record stores the outcome of initializing or running stage. It returns
// nil for a nil err and a *StageError otherwise.
func (s *Supervisor) Record(stage Stage, err error) error {
	if stage < 0 || stage >= numStages {
		return statusErrorf(StatusInvalidParameter, "unknown %v", stage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.status[stage].Store(int32(StatusOf(err)))

	if err == nil {
		s.errs[stage] = nil
		return nil
	}

	var se *StageError
	if !errors.As(err, &se) || se.Stage != stage {
		se = &StageError{Stage: stage, Err: err}
	}

	s.errs[stage] = se

	return se
}

// Status returns the last recorded status of stage.
func (s *Supervisor) Status(stage Stage) Status {
	if stage < 0 || stage >= numStages {
		return StatusInvalidParameter
	}

	return Status(s.status[stage].Load())
}

// Err joins the errors of every failed stage.
func (s *Supervisor) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return errors.Join(s.errs[:]...)
}

// HaltOnError halts the pipeline when any stage in stages is not OK and
// reports whether it did. With no stages it checks every stage.
func (s *Supervisor) HaltOnError(stages ...Stage) bool {
	if len(stages) == 0 {
		stages = Stages()
	}

	for _, st := range stages {
		if s.Status(st) != StatusOK {
			s.Halt()
			return true
		}
	}

	return s.halted.Load()
}

// Halt latches the fail-stop state. It cannot be undone.
func (s *Supervisor) Halt() { s.halted.Store(true) }

// Halted reports whether the pipeline has been halted.
func (s *Supervisor) Halted() bool { return s.halted.Load() }
