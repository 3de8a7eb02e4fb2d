package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// ========================================
// check
// ========================================

// TestCheckCommand_Stdin verifies one line per document from stdin.
func TestCheckCommand_Stdin(t *testing.T) {
	in := strings.NewReader("a: 1\n---\nb: !mutable [1]\n")
	var out bytes.Buffer

	err := checkCommand(nil, in, &out)
	if !errors.Is(err, errRejected) {
		t.Fatalf("checkCommand = %v, want errRejected", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("output:\n%s", out.String())
	}
	if lines[0] != "-#0: shareable" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "mutable list at b") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

// TestCheckCommand_Files verifies files are read and -dump re-encodes.
func TestCheckCommand_Files(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "values.yaml")
	if err := os.WriteFile(path, []byte("state: !sym ready\nitems: [1, 2.5, x]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer

	if err := checkCommand([]string{"-dump", path}, nil, &out); err != nil {
		t.Fatalf("checkCommand: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), path+"#0: shareable") {
		t.Errorf("missing verdict:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "!sym ready") {
		t.Errorf("dump lost the symbol tag:\n%s", out.String())
	}
}

// TestCheckCommand_MissingFile verifies read errors are reported.
func TestCheckCommand_MissingFile(t *testing.T) {
	err := checkCommand([]string{filepath.Join(t.TempDir(), "nope.yaml")}, nil, &bytes.Buffer{})
	if err == nil || errors.Is(err, errRejected) {
		t.Errorf("checkCommand(missing) = %v", err)
	}
}

// ========================================
// stress
// ========================================

// TestStressCommand_Flags verifies flags override defaults and the report is
// valid YAML.
func TestStressCommand_Flags(t *testing.T) {
	var out bytes.Buffer
	ll := &slog.LevelVar{}
	args := []string{
		"-counter-workers", "3", "-increments", "7",
		"-map-writers", "2", "-keys", "10",
		"-producers", "2", "-consumers", "2", "-items", "50",
		"-v",
	}

	if err := stressCommand(context.Background(), args, &out, discardLogger(), ll); err != nil {
		t.Fatalf("stressCommand: %v\n%s", err, out.String())
	}
	if ll.Level() != slog.LevelDebug {
		t.Error("-v did not enable debug logging")
	}

	var report struct {
		Counter struct {
			Expected int64 `yaml:"expected"`
		} `yaml:"counter"`
		Queue struct {
			Pushed int `yaml:"pushed"`
		} `yaml:"queue"`
		OK bool `yaml:"ok"`
	}
	if err := yaml.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("report is not YAML: %v\n%s", err, out.String())
	}
	// The default counter starts at 10.
	if report.Counter.Expected != 10+3*7 || report.Queue.Pushed != 100 || !report.OK {
		t.Errorf("report = %+v", report)
	}
}

// TestStressCommand_ConfigFile verifies a config file is honoured.
func TestStressCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workload.yaml")
	cfg := "counter: {workers: 1, increments: 1, initial: 0}\nmap: {writers: 0}\nqueue: {producers: 0, consumers: 0}\n"
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := stressCommand(context.Background(), []string{"-config", path}, &out, discardLogger(), &slog.LevelVar{})
	if err != nil {
		t.Fatalf("stressCommand: %v", err)
	}
	if strings.Contains(out.String(), "queue:") {
		t.Errorf("disabled queue section reported:\n%s", out.String())
	}
}

// TestStressCommand_BadArgs verifies argument errors.
func TestStressCommand_BadArgs(t *testing.T) {
	for _, args := range [][]string{
		{"extra"},
		{"-config", filepath.Join(t.TempDir(), "missing.yaml")},
		{"-map-writers", "-1"},
	} {
		err := stressCommand(context.Background(), args, &bytes.Buffer{}, discardLogger(), &slog.LevelVar{})
		if err == nil {
			t.Errorf("stressCommand(%v) succeeded", args)
		}
	}
}

// ========================================
// misc
// ========================================

// TestPrintVersion verifies the version line.
func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	if !strings.HasPrefix(out.String(), "isoshare version ") {
		t.Errorf("printVersion = %q", out.String())
	}
}

// TestNewLogger verifies the logger writes through to the file.
func TestNewLogger(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	ll := &slog.LevelVar{}
	logger := newLogger(f, ll)
	logger.Info("hello", "n", 3, "zero", int64(0))
	logger.Debug("hidden")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "hello") || strings.Contains(s, "hidden") || strings.Contains(s, "zero=") {
		t.Errorf("log output = %q", s)
	}
	if strings.Contains(s, "\x1b[") {
		t.Error("colour escape codes written to a non-terminal")
	}
}
