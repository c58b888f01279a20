package voice

import "voicebridge/internal/telephony"

// Disposition classifies who, or what, answered a call leg.
//
// It is derived deterministically from the answering-party indicator alone
// and never stored; each webhook delivery is classified independently.

type Disposition string

const (
	// DispositionHuman: no machine-detection result on the event, so a person
	// is on the line and the call is bridged to a voice agent.
	DispositionHuman Disposition = "human"

	// DispositionVoicemail: the machine's greeting just started. The call is
	// terminated and the CRM is told a voicemail was reached.
	DispositionVoicemail Disposition = "machine_voicemail"

	// DispositionIgnore: some other machine-detection result (beep, fax,
	// machine_end_*). Acknowledged and otherwise dropped.
	DispositionIgnore Disposition = "machine_ignore"
)

const answeredByMachineStart = "machine_start"

// Decide maps a call event to its disposition.
func Decide(ev telephony.CallEvent) Disposition {
	switch {
	case !ev.AnsweredBySet:
		return DispositionHuman
	case ev.AnsweredBy == answeredByMachineStart:
		return DispositionVoicemail
	default:
		return DispositionIgnore
	}
}
