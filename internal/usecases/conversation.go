package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"rsvpbot/internal/entities"
	"rsvpbot/internal/infrastructure"
	"rsvpbot/internal/interfaces"
)

// maxNoteLength caps the free-text note a guest can leave.
const maxNoteLength = 500

const msgInviteNotFound = "Hola 👋 No encontramos tu invitación con este número.\n" +
	"Si crees que es un error, escríbele directamente a los novios 💕"

// ConversationEngine walks each guest through the RSVP flow, one
// inbound message at a time.
type ConversationEngine struct {
	sessions *infrastructure.SessionStore
	profiles interfaces.ProfileGateway
	rsvps    interfaces.RSVPGateway
	notifier interfaces.Notifier
	log      zerolog.Logger
}

func NewConversationEngine(sessions *infrastructure.SessionStore, profiles interfaces.ProfileGateway, rsvps interfaces.RSVPGateway, log zerolog.Logger) *ConversationEngine {
	return &ConversationEngine{
		sessions: sessions,
		profiles: profiles,
		rsvps:    rsvps,
		log:      log.With().Str("component", "conversation").Logger(),
	}
}

// WithNotifier attaches an optional operator notifier for finished
// RSVPs.
func (e *ConversationEngine) WithNotifier(n interfaces.Notifier) *ConversationEngine {
	e.notifier = n
	return e
}

// Handle advances one guest's conversation with one inbound message and
// returns the replies to send back, in order. It never returns an
// error: every failure path degrades into a conversational reply.
func (e *ConversationEngine) Handle(waid, rawText string) []string {
	session := e.sessions.GetOrCreate(waid)

	// Without a profile there is no flow. Lookup repeats on every
	// message until the backend knows the guest; state is untouched so
	// the flow resumes where it was once the invite appears.
	if session.Profile == nil {
		profile, err := e.profiles.FetchProfile(waid)
		if err != nil {
			e.log.Info().Str("waid", waid).Msg("invite not found")
			return []string{msgInviteNotFound}
		}
		session.Profile = profile
	}

	input := strings.TrimSpace(rawText)
	choice := normalizeChoice(input)

	var replies []string
	switch session.State {
	case entities.StateNew:
		replies = append(replies, e.welcome(session))
		session.State = entities.StateMenu

	case entities.StateMenu:
		switch {
		case choice == "1" || choice == "INVITACION" || choice == "INVITACIÓN":
			replies = append(replies, e.invitation(session))
		case choice == "2":
			replies = append(replies, e.attendanceQuestion(session))
			session.State = entities.StateAttendance
		case choice == "3" || choice == "AYUDA":
			replies = append(replies, msgHelp)
		default:
			replies = append(replies, "Por favor responde con *1*, *2* o *3* 🙂")
		}

	case entities.StateAttendance:
		switch choice {
		case "1":
			session.Pending.Attending = true
			replies = append(replies, fmt.Sprintf(
				"¡Qué alegría! 🎉\n¿Cuántas personas asistirán en total? (de 1 a %d)",
				session.Profile.SeatAllowance))
			session.State = entities.StatePartySize
		case "2":
			e.submit(session, entities.RSVPSubmission{
				WaID:      waid,
				Attending: false,
			})
			replies = append(replies,
				"Gracias por avisarnos 💕 Te vamos a extrañar.\n\nEscribe *AYUDA* si necesitas algo más.")
			session.ClearPending()
			session.State = entities.StateMenu
		default:
			replies = append(replies, "Responde *1* si podrás asistir o *2* si no podrás 🙏")
		}

	case entities.StatePartySize:
		n, ok := parseLenientInt(input)
		if !ok || n < 1 || n > session.Profile.SeatAllowance {
			replies = append(replies, fmt.Sprintf(
				"Tu invitación es para un máximo de %d. Responde con un número de 1 a %d 🙂",
				session.Profile.SeatAllowance, session.Profile.SeatAllowance))
			break
		}
		session.Pending.PartySize = n
		replies = append(replies,
			"¿Quieres dejarles un mensaje a los novios? 💌\n\n1. Sí\n2. No, así está bien")
		session.State = entities.StateNoteDecide

	case entities.StateNoteDecide:
		switch choice {
		case "1":
			replies = append(replies, "Escríbenos tu mensaje ✍️")
			session.State = entities.StateNoteWrite
		case "2":
			e.submit(session, entities.RSVPSubmission{
				WaID:      waid,
				Attending: true,
				PartySize: session.Pending.PartySize,
			})
			replies = append(replies, e.confirmation(session))
			session.ClearPending()
			session.State = entities.StateMenu
		default:
			replies = append(replies, "Responde *1* para dejar un mensaje o *2* para terminar 🙂")
		}

	case entities.StateNoteWrite:
		note := truncateRunes(input, maxNoteLength)
		e.submit(session, entities.RSVPSubmission{
			WaID:      waid,
			Attending: true,
			PartySize: session.Pending.PartySize,
			Message:   note,
		})
		replies = append(replies, e.confirmation(session))
		session.ClearPending()
		session.State = entities.StateMenu

	default:
		// Unknown state value, reset rather than strand the guest.
		e.log.Warn().Str("waid", waid).Str("state", string(session.State)).Msg("unknown session state, resetting")
		session.State = entities.StateMenu
		replies = append(replies, "¿Te ayudo con algo más? Responde *1*, *2* o *3* 🙂")
	}

	e.sessions.Put(waid, session)
	return replies
}

func (e *ConversationEngine) welcome(s *entities.Session) string {
	return fmt.Sprintf("¡Hola %s! 👋 Soy el asistente de la boda 💍\n\n"+
		"1. Ver mi invitación\n"+
		"2. Confirmar asistencia (RSVP)\n"+
		"3. Ayuda\n\n"+
		"_Responde con el número de la opción_", s.Profile.DisplayName)
}

func (e *ConversationEngine) invitation(s *entities.Session) string {
	return fmt.Sprintf("Aquí está tu invitación 💌\n\n%s\n\nTu código de acceso es *%s*",
		s.Profile.InvitationURL, s.Profile.AccessCode)
}

func (e *ConversationEngine) attendanceQuestion(s *entities.Session) string {
	return fmt.Sprintf("%s, ¿podrás acompañarnos? 🥂\n\n1. Sí, ahí estaré\n2. No podré asistir",
		s.Profile.DisplayName)
}

func (e *ConversationEngine) confirmation(s *entities.Session) string {
	return fmt.Sprintf("¡Listo! ✅ Confirmamos %d lugar(es) a tu nombre.\n\n"+
		"Nos vemos pronto 🎊 Escribe *AYUDA* si necesitas algo más.",
		s.Pending.PartySize)
}

const msgHelp = "Opciones disponibles:\n\n" +
	"1. Ver mi invitación (link y código)\n" +
	"2. Confirmar asistencia (RSVP)\n" +
	"3. Ayuda\n\n" +
	"Cualquier duda, escríbele directamente a los novios 💕"

// submit posts a finished RSVP. Failures are logged and deliberately
// not surfaced: the guest already answered, the confirmation must go
// out regardless.
func (e *ConversationEngine) submit(s *entities.Session, sub entities.RSVPSubmission) {
	if err := e.rsvps.SubmitRSVP(sub); err != nil {
		e.log.Error().Err(err).Str("waid", sub.WaID).Msg("rsvp submit failed")
	} else {
		e.log.Info().Str("waid", sub.WaID).Bool("attending", sub.Attending).Int("party", sub.PartySize).Msg("rsvp submitted")
	}
	if e.notifier != nil {
		e.notifier.Notify(rsvpSummary(s, sub))
	}
}

func rsvpSummary(s *entities.Session, sub entities.RSVPSubmission) string {
	if !sub.Attending {
		return fmt.Sprintf("❌ *%s* no podrá asistir", s.Profile.DisplayName)
	}
	summary := fmt.Sprintf("✅ *%s* confirmó %d lugar(es)", s.Profile.DisplayName, sub.PartySize)
	if sub.Message != "" {
		summary += "\n💌 " + sub.Message
	}
	return summary
}

// normalizeChoice folds a menu answer: whitespace trimmed, trailing
// punctuation from "1." style answers dropped, case-folded for keyword
// commands.
func normalizeChoice(input string) string {
	s := strings.TrimSpace(input)
	s = strings.TrimRight(s, ".)")
	return strings.ToUpper(s)
}

// parseLenientInt accepts "3", " 3 " and "3." style answers.
func parseLenientInt(input string) (int, bool) {
	s := strings.TrimSpace(input)
	s = strings.TrimRight(s, ".")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
