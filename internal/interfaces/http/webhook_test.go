package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvpbot/internal/entities"
)

func TestDecodeTextMessage(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5211111111111","type":"text","text":{"body":"AYUDA"}}
	]}}]}]}`)

	events := DecodeInboundEvents(body)

	require.Len(t, events, 1)
	msg, ok := events[0].(entities.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "5211111111111", msg.From)
	assert.Equal(t, "AYUDA", msg.Body)
}

func TestDecodeInteractiveButtonReply(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5211111111111","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"opt_2","title":"Confirmar asistencia"}}}
	]}}]}]}`)

	events := DecodeInboundEvents(body)

	require.Len(t, events, 1)
	btn, ok := events[0].(entities.ButtonReply)
	require.True(t, ok)
	assert.Equal(t, "opt_2", btn.ID)
	assert.Equal(t, "Confirmar asistencia", btn.Title)
}

func TestDecodeTemplateQuickReply(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5211111111111","type":"button","button":{"payload":"rsvp_yes","text":"Sí, asistiré"}}
	]}}]}]}`)

	events := DecodeInboundEvents(body)

	require.Len(t, events, 1)
	btn, ok := events[0].(entities.ButtonReply)
	require.True(t, ok)
	assert.Equal(t, "rsvp_yes", btn.ID)
	assert.Equal(t, "Sí, asistiré", btn.Title)
}

func TestDecodeStatusUpdates(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"statuses":[
		{"id":"wamid.X","status":"delivered"}
	]}}]}]}`)

	events := DecodeInboundEvents(body)

	require.Len(t, events, 1)
	st, ok := events[0].(entities.StatusUpdate)
	require.True(t, ok)
	assert.Equal(t, "delivered", st.Status)
}

func TestDecodeUnknownMessageType(t *testing.T) {
	body := []byte(`{"entry":[{"changes":[{"value":{"messages":[
		{"from":"5211111111111","type":"image"}
	]}}]}]}`)

	events := DecodeInboundEvents(body)

	require.Len(t, events, 1)
	_, ok := events[0].(entities.Unrecognized)
	assert.True(t, ok)
}

func TestDecodeGarbageYieldsNothing(t *testing.T) {
	assert.Empty(t, DecodeInboundEvents([]byte(`not json`)))
	assert.Empty(t, DecodeInboundEvents([]byte(`{}`)))
	assert.Empty(t, DecodeInboundEvents([]byte(`{"entry":[{"changes":[{"value":{}}]}]}`)))
}
