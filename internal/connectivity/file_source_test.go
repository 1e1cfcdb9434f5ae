package connectivity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadStatusFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "network")

	s, err := ReadStatusFile(path)
	if err != nil || s != Online {
		t.Fatalf("missing file = %s, %v; want online", s, err)
	}

	if err := WriteStatusFile(path, Offline); err != nil {
		t.Fatalf("WriteStatusFile failed: %v", err)
	}
	s, err = ReadStatusFile(path)
	if err != nil || s != Offline {
		t.Fatalf("ReadStatusFile = %s, %v; want offline", s, err)
	}

	if err := os.WriteFile(path, []byte("sideways"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadStatusFile(path); err == nil {
		t.Error("expected error for unrecognized content")
	}
}

func TestNewFileSource_Validation(t *testing.T) {
	m := NewMonitor(Online)

	if _, err := NewFileSource("", m, nil); err == nil {
		t.Error("expected error for empty path")
	}
	if _, err := NewFileSource("x", nil, nil); err == nil {
		t.Error("expected error for nil monitor")
	}
}

func TestFileSource_FollowsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "network")
	if err := WriteStatusFile(path, Offline); err != nil {
		t.Fatal(err)
	}

	m := NewMonitor(Online)
	ch, cancel := m.Subscribe()
	defer cancel()

	src, err := NewFileSource(path, m, nil)
	if err != nil {
		t.Fatalf("NewFileSource failed: %v", err)
	}
	if err := src.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer src.Stop()

	if err := src.Start(); err == nil {
		t.Error("second Start should fail")
	}

	// Start applies the file immediately.
	if got := recv(t, ch); got != Offline {
		t.Fatalf("initial status = %s, want offline", got)
	}

	if err := WriteStatusFile(path, Online); err != nil {
		t.Fatal(err)
	}
	if got := recv(t, ch); got != Online {
		t.Fatalf("after rewrite = %s, want online", got)
	}

	// Rewriting the same value is not a transition.
	if err := WriteStatusFile(path, Online); err != nil {
		t.Fatal(err)
	}
	assertNoEvent(t, ch)
}

func TestFileSource_StopWithoutStart(t *testing.T) {
	src, err := NewFileSource(filepath.Join(t.TempDir(), "network"), NewMonitor(Online), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Stop without Start failed: %v", err)
	}
}
