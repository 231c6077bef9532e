package entities

// State identifies where a guest is in the conversation flow.
type State string

const (
	StateNew        State = "NEW"             // first contact, nothing sent yet
	StateMenu       State = "MENU"            // main menu shown
	StateAttendance State = "RSVP_ASISTE"     // asked "will you attend?"
	StatePartySize  State = "RSVP_NUM"        // asked how many guests
	StateNoteDecide State = "RSVP_MSG_DECIDE" // asked whether to leave a note
	StateNoteWrite  State = "RSVP_MSG_WRITE"  // collecting the note text
)

// PendingRSVP accumulates answers while a guest walks the RSVP flow.
// Cleared exactly when the submission is finalized.
type PendingRSVP struct {
	Attending bool
	PartySize int
}

// Session is one guest's conversation state, keyed by waid. Lives for
// the life of the process; never persisted.
type Session struct {
	WaID    string
	State   State
	Profile *Profile // cached after first successful lookup
	Pending PendingRSVP
}

// ClearPending resets in-progress RSVP answers after a flow completes
// or is abandoned.
func (s *Session) ClearPending() {
	s.Pending = PendingRSVP{}
}
