package esptool

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type captureSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (c *captureSender) Send(m tea.Msg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
}

func TestExecRunnerStreamsLinesAndExitStatus(t *testing.T) {
	s := &captureSender{}
	r := NewExecRunner("sh")

	r.Stream(s, "-c", "echo one; echo two")

	var lines []string
	var finished *FinishedMsg
	for _, m := range s.msgs {
		switch m := m.(type) {
		case OutputMsg:
			lines = append(lines, m.Line)
		case FinishedMsg:
			f := m
			finished = &f
		}
	}

	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Fatalf("unexpected output lines %v", lines)
	}
	if finished == nil {
		t.Fatal("expected a FinishedMsg")
	}
	if finished.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", finished.ExitCode)
	}
	if _, ok := s.msgs[len(s.msgs)-1].(FinishedMsg); !ok {
		t.Fatal("FinishedMsg must be the last message")
	}
}

func TestExecRunnerReportsNonZeroExit(t *testing.T) {
	s := &captureSender{}
	r := NewExecRunner("sh")

	r.Stream(s, "-c", "exit 3")

	last, ok := s.msgs[len(s.msgs)-1].(FinishedMsg)
	if !ok {
		t.Fatalf("expected FinishedMsg, got %T", s.msgs[len(s.msgs)-1])
	}
	if last.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", last.ExitCode)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	s := &captureSender{}
	r := NewExecRunner("definitely-not-a-real-binary")

	r.Stream(s)

	last, ok := s.msgs[len(s.msgs)-1].(FinishedMsg)
	if !ok {
		t.Fatalf("expected FinishedMsg, got %T", s.msgs[len(s.msgs)-1])
	}
	if last.ExitCode != -1 || last.Err == nil {
		t.Fatalf("expected start failure, got %+v", last)
	}
}

func TestNewExecRunnerDefaultBinary(t *testing.T) {
	if NewExecRunner("").Binary != DefaultBinary {
		t.Fatal("expected DefaultBinary fallback")
	}
}
