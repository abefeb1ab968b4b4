package esptool

import (
	"bufio"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultBinary is the esptool executable resolved from PATH unless the
// configuration overrides it.
const DefaultBinary = "esptool.py"

// OutputMsg carries one line of tool output, forwarded as it is produced.
type OutputMsg struct {
	Line string
}

// FinishedMsg is sent once when a tool invocation terminates.
// ExitCode 0 means success; Err carries start/wait failures.
type FinishedMsg struct {
	ExitCode int
	Duration time.Duration
	Err      error
}

// Sender delivers messages into the control loop. *tea.Program satisfies it.
type Sender interface {
	Send(tea.Msg)
}

// Runner executes the external flashing tool.
type Runner interface {
	// Stream runs the tool with the given arguments, sending OutputMsg for
	// each output line and a terminal FinishedMsg. It blocks until the tool
	// exits; callers run it on their own goroutine. A started invocation
	// cannot be interrupted.
	Stream(s Sender, args ...string)
}

// ExecRunner runs the tool as a subprocess via os/exec.
type ExecRunner struct {
	Binary string
}

// NewExecRunner returns a runner for the given binary, falling back to
// DefaultBinary when empty.
func NewExecRunner(binary string) ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return ExecRunner{Binary: binary}
}

func (r ExecRunner) Stream(s Sender, args ...string) {
	start := time.Now()
	cmd := exec.Command(r.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.Send(FinishedMsg{ExitCode: -1, Duration: time.Since(start), Err: err})
		return
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	if err := cmd.Start(); err != nil {
		s.Send(FinishedMsg{ExitCode: -1, Duration: time.Since(start), Err: err})
		return
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		s.Send(OutputMsg{Line: scanner.Text()})
	}

	exitCode := 0
	err = cmd.Wait()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	s.Send(FinishedMsg{
		ExitCode: exitCode,
		Duration: time.Since(start),
		Err:      err,
	})
}
