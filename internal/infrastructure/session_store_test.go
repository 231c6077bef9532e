package infrastructure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvpbot/internal/entities"
)

func TestGetOrCreateStartsInNew(t *testing.T) {
	store := NewSessionStore()

	assert.Nil(t, store.Get("5211111111111"))

	session := store.GetOrCreate("5211111111111")
	require.NotNil(t, session)
	assert.Equal(t, entities.StateNew, session.State)
	assert.Equal(t, "5211111111111", session.WaID)
	assert.Equal(t, 1, store.Len())

	// same pointer on repeat access
	assert.Same(t, session, store.GetOrCreate("5211111111111"))
	assert.Equal(t, 1, store.Len())
}

func TestResetDropsSession(t *testing.T) {
	store := NewSessionStore()
	session := store.GetOrCreate("5211111111111")
	session.State = entities.StateMenu

	store.Reset("5211111111111")

	assert.Nil(t, store.Get("5211111111111"))
	fresh := store.GetOrCreate("5211111111111")
	assert.Equal(t, entities.StateNew, fresh.State)
}

func TestPutReplacesSession(t *testing.T) {
	store := NewSessionStore()
	store.GetOrCreate("5211111111111")

	replacement := &entities.Session{WaID: "5211111111111", State: entities.StateMenu}
	store.Put("5211111111111", replacement)

	assert.Same(t, replacement, store.Get("5211111111111"))
}

func TestDebugResetRestartsFlowEachMessage(t *testing.T) {
	store := NewSessionStore()
	store.DebugReset = true

	session := store.GetOrCreate("5211111111111")
	session.State = entities.StatePartySize
	session.Pending = entities.PendingRSVP{Attending: true, PartySize: 2}

	again := store.GetOrCreate("5211111111111")

	assert.Equal(t, entities.StateNew, again.State)
	assert.Equal(t, entities.PendingRSVP{}, again.Pending)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewSessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			waid := fmt.Sprintf("52%011d", n%10)
			s := store.GetOrCreate(waid)
			store.Put(waid, s)
			store.Get(waid)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
}
