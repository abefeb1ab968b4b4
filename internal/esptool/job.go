package esptool

import (
	"context"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
)

// Job lifecycle states.
const (
	StateIdle      = "idle"
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

const (
	eventStart   = "start"
	eventSucceed = "succeed"
	eventFail    = "fail"
)

// Mode distinguishes a destructive flash write from the read-only
// chip-id verification.
type Mode string

const (
	ModeWrite  Mode = "write_flash"
	ModeChipID Mode = "chip-id"
)

// Job tracks a single tool invocation from start to terminal state.
// Terminal states are final; retrying means creating a fresh Job.
// A running write cannot be interrupted: RequestStop only records that no
// follow-up work should start, it never kills the tool mid-write.
type Job struct {
	Mode Mode
	Port string

	mu            sync.Mutex
	machine       *fsm.FSM
	stopRequested bool
	exitCode      int
}

// NewJob creates an idle job for the given mode and port.
func NewJob(mode Mode, port string) *Job {
	return &Job{
		Mode: mode,
		Port: port,
		machine: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: eventStart, Src: []string{StateIdle}, Dst: StateRunning},
				{Name: eventSucceed, Src: []string{StateRunning}, Dst: StateSucceeded},
				{Name: eventFail, Src: []string{StateRunning}, Dst: StateFailed},
			},
			fsm.Callbacks{},
		),
	}
}

// Start moves the job to running. Starting a job twice, or a finished job,
// is an error.
func (j *Job) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := j.machine.Event(context.Background(), eventStart); err != nil {
		return fmt.Errorf("start %s job: %w", j.Mode, err)
	}
	return nil
}

// Finish records the tool's exit status and moves the job to its terminal
// state. Finishing a job that is not running is an error.
func (j *Job) Finish(exitCode int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	event := eventSucceed
	if exitCode != 0 {
		event = eventFail
	}
	if err := j.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("finish %s job: %w", j.Mode, err)
	}
	j.exitCode = exitCode
	return nil
}

// State returns the current lifecycle state.
func (j *Job) State() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.machine.Current()
}

// Running reports whether the tool invocation is still in flight.
func (j *Job) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.machine.Is(StateRunning)
}

// RequestStop marks that the caller wants no further work. It has no
// effect on the in-flight invocation; killing esptool mid-write risks
// corrupting the device's flash.
func (j *Job) RequestStop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopRequested = true
}

// StopRequested reports whether a stop was requested while running.
func (j *Job) StopRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.stopRequested
}

// ExitCode returns the recorded exit status. Only meaningful once the job
// reached a terminal state.
func (j *Job) ExitCode() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.exitCode
}
