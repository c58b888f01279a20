package voice

import (
	"testing"

	"voicebridge/internal/telephony"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		ev   telephony.CallEvent
		want Disposition
	}{
		{name: "no indicator means human", ev: telephony.CallEvent{}, want: DispositionHuman},
		{name: "machine_start means voicemail", ev: telephony.CallEvent{AnsweredBy: "machine_start", AnsweredBySet: true}, want: DispositionVoicemail},
		{name: "machine_end_beep ignored", ev: telephony.CallEvent{AnsweredBy: "machine_end_beep", AnsweredBySet: true}, want: DispositionIgnore},
		{name: "fax ignored", ev: telephony.CallEvent{AnsweredBy: "fax", AnsweredBySet: true}, want: DispositionIgnore},
		{name: "empty but present indicator ignored", ev: telephony.CallEvent{AnsweredBy: "", AnsweredBySet: true}, want: DispositionIgnore},
		{name: "human indicator value still treated as machine result", ev: telephony.CallEvent{AnsweredBy: "human", AnsweredBySet: true}, want: DispositionIgnore},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Decide(tc.ev); got != tc.want {
				t.Fatalf("Decide(%+v) = %q, want %q", tc.ev, got, tc.want)
			}
		})
	}
}
