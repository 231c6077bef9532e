package http

import (
	"encoding/json"

	"rsvpbot/internal/entities"
)

// Wire shapes for the Cloud API webhook envelope. Only the fields the
// bot consumes are declared; everything else is ignored by the decoder.
type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
				Statuses []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"button_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
}

// DecodeInboundEvents parses one webhook delivery into typed events.
// Undecodable payloads yield an empty slice; the webhook always answers
// 200 either way, so the provider does not retry garbage.
func DecodeInboundEvents(body []byte) []entities.InboundEvent {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	var events []entities.InboundEvent
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				events = append(events, decodeMessage(msg))
			}
			for _, st := range change.Value.Statuses {
				events = append(events, entities.StatusUpdate{MessageID: st.ID, Status: st.Status})
			}
		}
	}
	return events
}

func decodeMessage(msg webhookMessage) entities.InboundEvent {
	switch {
	case msg.Text != nil:
		return entities.TextMessage{From: msg.From, Body: msg.Text.Body}
	case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
		return entities.ButtonReply{
			From:  msg.From,
			ID:    msg.Interactive.ButtonReply.ID,
			Title: msg.Interactive.ButtonReply.Title,
		}
	case msg.Button != nil:
		// Quick-reply button on a template message.
		return entities.ButtonReply{
			From:  msg.From,
			ID:    msg.Button.Payload,
			Title: msg.Button.Text,
		}
	default:
		return entities.Unrecognized{From: msg.From}
	}
}
