package entities

// Profile is the invitation record for one guest, as returned by the
// remote invite backend. Read-only once fetched.
type Profile struct {
	DisplayName   string `json:"displayName"`
	AccessCode    string `json:"accessCode"`
	InvitationURL string `json:"invitationUrl"`
	SeatAllowance int    `json:"seatAllowance"` // max party size; backend may omit, defaults to 1
}

// RSVPSubmission is the final answer for one guest, posted to the
// invite backend. PartySize is meaningful only when Attending.
type RSVPSubmission struct {
	WaID      string `json:"waid"`
	Attending bool   `json:"attending"`
	PartySize int    `json:"partySize"`
	Message   string `json:"message"`
}
