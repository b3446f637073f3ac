package ui

import (
	"bytes"
	"testing"
)

func TestNewTerminalRejectsQuietWithoutYes(t *testing.T) {
	if _, err := NewTerminal(false, true); err == nil {
		t.Error("NewTerminal(false, true) should fail")
	}
}

func TestTerminalConfirmAssumeYesSkipsPrompt(t *testing.T) {
	errBuf := &bytes.Buffer{}
	term := &Terminal{Out: &bytes.Buffer{}, Err: errBuf, In: bytes.NewBufferString(""), AssumeYes: true}
	ok, err := term.Confirm("proceed?")
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if !ok {
		t.Error("Confirm() with AssumeYes should return true")
	}
	if errBuf.Len() != 0 {
		t.Error("Confirm() with AssumeYes should not write a prompt")
	}
}

func TestTerminalPrintfRespectsQuiet(t *testing.T) {
	out := &bytes.Buffer{}
	term := &Terminal{Out: out, Err: &bytes.Buffer{}, quiet: true, AssumeYes: true}
	term.Printf("hello %s", "world")
	if out.Len() != 0 {
		t.Errorf("Printf() under Quiet wrote %q, want nothing", out.String())
	}
}

func TestScriptedConfirmDrainsQueueInOrder(t *testing.T) {
	s := &Scripted{Responses: []bool{true, false}}
	first, err := s.Confirm("a")
	if err != nil || !first {
		t.Fatalf("Confirm() = %v, %v", first, err)
	}
	second, err := s.Confirm("b")
	if err != nil || second {
		t.Fatalf("Confirm() = %v, %v", second, err)
	}
	if _, err := s.Confirm("c"); err == nil {
		t.Error("Confirm() past the end of Responses should error")
	}
}

func TestScriptedPrintfRecordsOutput(t *testing.T) {
	s := &Scripted{}
	s.Printf("staged %d assets", 3)
	if len(s.Out) != 1 || s.Out[0] != "staged 3 assets" {
		t.Errorf("Out = %v", s.Out)
	}
}
