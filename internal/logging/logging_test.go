package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFactory_DiscardByDefault(t *testing.T) {
	var stderr bytes.Buffer
	f := New(Options{Stderr: &stderr})
	defer f.Close()

	f.Logger("sync").Println("hidden")

	if stderr.Len() != 0 {
		t.Errorf("quiet factory wrote %q", stderr.String())
	}
}

func TestFactory_VerbosePrefixesComponent(t *testing.T) {
	var stderr bytes.Buffer
	f := New(Options{Verbose: true, Stderr: &stderr})
	defer f.Close()

	f.Logger("cache").Println("opened")

	if got := stderr.String(); !strings.HasPrefix(got, "[cache] ") || !strings.Contains(got, "opened") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFactory_FileAndStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "planner.log")
	var stderr bytes.Buffer

	f := New(Options{File: path, MaxSizeMB: 1, Verbose: true, Stderr: &stderr})
	f.Logger("daemon").Println("started")
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "[daemon] ") {
		t.Errorf("file output %q missing prefix", data)
	}
	if !strings.Contains(stderr.String(), "started") {
		t.Errorf("stderr output %q missing message", stderr.String())
	}
}

func TestFactory_RotateWithoutFile(t *testing.T) {
	f := New(Options{})
	if err := f.Rotate(); err != nil {
		t.Errorf("Rotate without file = %v", err)
	}
}
