package interfaces

import (
	"errors"

	"rsvpbot/internal/entities"
)

// ErrProfileNotFound is returned by ProfileGateway when the backend has
// no invitation for a waid. Lookup failures (timeouts, non-2xx) are
// folded into the same error by implementations: the conversation layer
// treats them identically.
var ErrProfileNotFound = errors.New("invite profile not found")

// MessageSender delivers a single outbound message and returns the
// provider's message id. Configured reports whether credentials are
// present; broadcast acceptance checks it up front.
type MessageSender interface {
	SendText(to, body string) (string, error)
	SendTemplate(to, templateName, languageCode string, variables []string) (string, error)
	Configured() bool
}

// ProfileGateway looks up one guest's invitation record.
type ProfileGateway interface {
	FetchProfile(waid string) (*entities.Profile, error)
}

// RSVPGateway persists a finished RSVP. Callers log failures and move
// on; a gateway error never reaches the guest.
type RSVPGateway interface {
	SubmitRSVP(sub entities.RSVPSubmission) error
}

// RecipientGateway returns the ordered target list for a campaign.
type RecipientGateway interface {
	FetchRecipients(q entities.RecipientQuery) ([]entities.Recipient, error)
	Configured() bool
}

// DeliveryLogger records one send attempt. Best effort.
type DeliveryLogger interface {
	LogDelivery(e entities.DeliveryEntry) error
}

// Notifier pushes short operational notes to the operator (Telegram).
type Notifier interface {
	Notify(text string) error
}
