package calls

import "testing"

func TestStatusFromProvider(t *testing.T) {
	tests := []struct {
		in   string
		want CallStatus
	}{
		{in: "completed", want: CallStatusCompleted},
		{in: "no-answer", want: CallStatusNoAnswer},
		{in: "in-progress", want: CallStatusInProgress},
		{in: " Busy ", want: CallStatusBusy},
		{in: "CANCELED", want: CallStatusCanceled},
	}
	for _, tc := range tests {
		if got := StatusFromProvider(tc.in); got != tc.want {
			t.Fatalf("StatusFromProvider(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusBusy, CallStatusCanceled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Fatalf("expected %q to be terminal", s)
		}
	}
	live := []CallStatus{CallStatusQueued, CallStatusRinging, CallStatusInProgress}
	for _, s := range live {
		if s.IsTerminal() {
			t.Fatalf("expected %q to be live", s)
		}
	}
}
