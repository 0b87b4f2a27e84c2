// Package killswitch gates trading behind a flag file so an operator, a cron
// job, or the API can halt entries without stopping the process.
package killswitch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Switch is a file-backed kill switch. The file existing means engaged.
// Construct one per process and pass it where it is needed.
type Switch struct {
	path string
}

// Status describes the switch state.
type Status struct {
	Engaged   bool   `json:"engaged"`
	EngagedAt string `json:"engaged_at,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// New returns a switch backed by the given flag file path.
func New(path string) *Switch {
	return &Switch{path: path}
}

// Engage writes the flag file with a timestamp and reason.
func (s *Switch) Engage(reason string) error {
	if reason == "" {
		reason = "manual"
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create kill switch dir: %w", err)
	}
	content := fmt.Sprintf("engaged_at=%s\nreason=%s\n",
		time.Now().UTC().Format(time.RFC3339), reason)
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write kill switch file: %w", err)
	}
	return nil
}

// Resume removes the flag file. Resuming an already-resumed switch is a
// no-op.
func (s *Switch) Resume() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove kill switch file: %w", err)
	}
	return nil
}

// Engaged reports whether the flag file exists.
func (s *Switch) Engaged() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Status reads the flag file details, tolerating a file another process may
// have written by hand.
func (s *Switch) Status() Status {
	f, err := os.Open(s.path)
	if err != nil {
		return Status{Engaged: false}
	}
	defer f.Close()

	st := Status{Engaged: true}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "engaged_at":
			st.EngagedAt = value
		case "reason":
			st.Reason = value
		}
	}
	return st
}
