package player

import "testing"

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Stopped, "Stopped"},
		{Playing, "Playing"},
		{Paused, "Paused"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestStateIsActive(t *testing.T) {
	if Stopped.IsActive() {
		t.Error("Stopped must not be active")
	}
	if !Playing.IsActive() || !Paused.IsActive() {
		t.Error("Playing and Paused must both be active (source attached)")
	}
}
