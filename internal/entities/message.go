package entities

// InboundEvent is the decoded form of one webhook delivery. The raw
// Cloud API envelope is parsed exactly once at the HTTP boundary; the
// conversation engine only ever sees one of these variants.
type InboundEvent interface {
	inboundEvent()
}

// TextMessage is a free-text message typed by the user.
type TextMessage struct {
	From string // waid of the sender
	Body string
}

// ButtonReply is a tap on an interactive or template button. Title is
// what the user saw on the button; ID is the developer-assigned payload.
type ButtonReply struct {
	From  string
	ID    string
	Title string
}

// StatusUpdate reports delivery/read state for a previously sent
// message. The bot ignores these but the webhook must accept them.
type StatusUpdate struct {
	MessageID string
	Status    string
}

// Unrecognized covers envelope shapes we do not handle (media, stickers,
// reactions). Kept as a variant so the boundary never drops anything
// silently.
type Unrecognized struct {
	From string
}

func (TextMessage) inboundEvent()  {}
func (ButtonReply) inboundEvent()  {}
func (StatusUpdate) inboundEvent() {}
func (Unrecognized) inboundEvent() {}
