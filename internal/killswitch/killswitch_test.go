package killswitch

import (
	"path/filepath"
	"testing"
)

func newSwitch(t *testing.T) *Switch {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "runtime", "kill_switch.flag"))
}

func TestEngageResumeCycle(t *testing.T) {
	s := newSwitch(t)

	if s.Engaged() {
		t.Fatal("fresh switch should not be engaged")
	}
	if err := s.Engage("drawdown limit"); err != nil {
		t.Fatalf("Engage: %v", err)
	}
	if !s.Engaged() {
		t.Fatal("switch should be engaged")
	}

	st := s.Status()
	if !st.Engaged || st.Reason != "drawdown limit" || st.EngagedAt == "" {
		t.Errorf("status = %+v", st)
	}

	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if s.Engaged() {
		t.Fatal("switch should be resumed")
	}
	if st := s.Status(); st.Engaged {
		t.Errorf("status after resume = %+v", st)
	}
}

func TestResumeIdempotent(t *testing.T) {
	s := newSwitch(t)
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume on fresh switch: %v", err)
	}
}

func TestEngageDefaultsReason(t *testing.T) {
	s := newSwitch(t)
	if err := s.Engage(""); err != nil {
		t.Fatalf("Engage: %v", err)
	}
	if st := s.Status(); st.Reason != "manual" {
		t.Errorf("reason = %s, want manual", st.Reason)
	}
}
