// Copyright 2024 The clarity-wasm Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLoggerWritesToConfiguredOutput(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)

	l.Info("compiling contract")

	if !strings.Contains(buf.String(), "compiling contract") {
		t.Errorf("expected output to contain message, got %q", buf.String())
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)

	if err := l.SetLevel("warn"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	l.Debug("suppressed")
	l.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("expected debug message to be suppressed, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("expected warn message to appear, got %q", out)
	}
}

func TestLoggerSetLevelRejectsUnknown(t *testing.T) {
	l := New()
	if err := l.SetLevel("not-a-level"); err == nil {
		t.Fatal("expected error for unrecognized level")
	}
}

func TestLoggerJSONFormatter(t *testing.T) {
	l := New()
	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.SetJSONFormatter()

	l.WithField("contract", "token").Info("defined fungible token")

	out := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected JSON-formatted output, got %q", out)
	}
	if !strings.Contains(out, `"contract":"token"`) {
		t.Errorf("expected field to be present, got %q", out)
	}
}

func TestGlobalLoggerIsIndependentOfInstances(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("global message")

	if !strings.Contains(buf.String(), "global message") {
		t.Errorf("expected global logger output, got %q", buf.String())
	}

	New().Info("instance message")
	if strings.Contains(buf.String(), "instance message") {
		t.Errorf("expected an instance's output to stay out of the global logger's writer, got %q", buf.String())
	}
}
