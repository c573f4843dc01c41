package tests

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/marketloop/gateway/src/hub"
	"github.com/marketloop/gateway/src/service"
	"github.com/marketloop/gateway/src/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePresence is an in-memory stand-in for the Redis presence store.
type fakePresence struct {
	mu         sync.Mutex
	members    []string
	categories map[string]string
}

func newFakePresence() *fakePresence {
	return &fakePresence{categories: make(map[string]string)}
}

func (f *fakePresence) Announce(_ context.Context, _ string, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members {
		if m == userID {
			return append([]string(nil), f.members...)
		}
	}
	f.members = append(f.members, userID)
	return append([]string(nil), f.members...)
}

func (f *fakePresence) Remove(_ context.Context, _ string, userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.members {
		if m == userID {
			f.members = append(f.members[:i], f.members[i+1:]...)
			break
		}
	}
	return append([]string(nil), f.members...)
}

func (f *fakePresence) Members(_ context.Context, _ string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.members...)
}

func (f *fakePresence) SetCategory(_ context.Context, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories[key] = value
}

func (f *fakePresence) category(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.categories[key]
	return v, ok
}

func newTestService(t *testing.T) (*hub.Hub, *fakePresence) {
	t.Helper()
	h := newTestHub(t)
	store := newFakePresence()
	svc := service.New(h, store, zerolog.Nop())
	svc.Register()
	return h, store
}

// onlineMembers decodes the members list of the last online event
// written to conn, or nil if none arrived.
func onlineMembers(t *testing.T, conn *mockConn) []string {
	t.Helper()
	written := conn.getWritten()
	for i := len(written) - 1; i >= 0; i-- {
		if written[i].Event != service.EventOnline {
			continue
		}
		var members []string
		require.NoError(t, json.Unmarshal(written[i].Arg(0), &members))
		return members
	}
	return nil
}

func TestLoggedInUsersBroadcastsMembership(t *testing.T) {
	h, _ := newTestService(t)
	_, connA := registerClient(t, h, "client-a")
	_, connB := registerClient(t, h, "client-b")

	connA.readCh <- types.Message{
		Event: service.EventLoggedInUsers,
		Args:  []json.RawMessage{json.RawMessage(`"alice"`)},
	}
	time.Sleep(50 * time.Millisecond)
	connB.readCh <- types.Message{
		Event: service.EventLoggedInUsers,
		Args:  []json.RawMessage{json.RawMessage(`"bob"`)},
	}
	time.Sleep(50 * time.Millisecond)

	// Both clients see the full membership in insertion order.
	assert.Equal(t, []string{"alice", "bob"}, onlineMembers(t, connA))
	assert.Equal(t, []string{"alice", "bob"}, onlineMembers(t, connB))
}

func TestRemoveLoggedInUserBroadcastsMembership(t *testing.T) {
	h, _ := newTestService(t)
	_, connA := registerClient(t, h, "client-a")
	_, connB := registerClient(t, h, "client-b")

	connA.readCh <- types.Message{
		Event: service.EventLoggedInUsers,
		Args:  []json.RawMessage{json.RawMessage(`"alice"`)},
	}
	time.Sleep(50 * time.Millisecond)
	connB.readCh <- types.Message{
		Event: service.EventLoggedInUsers,
		Args:  []json.RawMessage{json.RawMessage(`"bob"`)},
	}
	time.Sleep(50 * time.Millisecond)

	connA.readCh <- types.Message{
		Event: service.EventRemoveLoggedInUser,
		Args:  []json.RawMessage{json.RawMessage(`"alice"`)},
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"bob"}, onlineMembers(t, connA))
	assert.Equal(t, []string{"bob"}, onlineMembers(t, connB))
}

func TestGetLoggedInUsersBroadcastsCurrentView(t *testing.T) {
	h, store := newTestService(t)
	store.Announce(context.Background(), "", "carol")

	_, conn := registerClient(t, h, "client-a")
	conn.readCh <- types.Message{Event: service.EventGetLoggedInUsers}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"carol"}, onlineMembers(t, conn))
}

func TestStructuredIdentityAccepted(t *testing.T) {
	h, _ := newTestService(t)
	_, conn := registerClient(t, h, "client-a")

	conn.readCh <- types.Message{
		Event: service.EventLoggedInUsers,
		Args:  []json.RawMessage{json.RawMessage(`{"username":"alice","id":"u-1"}`)},
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []string{"alice"}, onlineMembers(t, conn))
}

func TestInvalidIdentityDropped(t *testing.T) {
	h, _ := newTestService(t)
	_, conn := registerClient(t, h, "client-a")

	for _, raw := range []string{`{}`, `null`, `""`} {
		conn.readCh <- types.Message{
			Event: service.EventLoggedInUsers,
			Args:  []json.RawMessage{json.RawMessage(raw)},
		}
	}
	time.Sleep(50 * time.Millisecond)

	assert.Nil(t, onlineMembers(t, conn), "invalid identities must not produce broadcasts")
}

func TestCategoryStoredPerUser(t *testing.T) {
	h, store := newTestService(t)
	_, conn := registerClient(t, h, "client-a")

	conn.readCh <- types.Message{
		Event: service.EventCategory,
		Args: []json.RawMessage{
			json.RawMessage(`"programming"`),
			json.RawMessage(`{"username":"alice"}`),
		},
	}
	time.Sleep(50 * time.Millisecond)

	got, ok := store.category("selectedCategories:alice")
	require.True(t, ok, "category should be stored")
	assert.Equal(t, "programming", got)
}

func TestCategoryInvalidArgumentsIgnored(t *testing.T) {
	h, store := newTestService(t)
	_, conn := registerClient(t, h, "client-a")

	conn.readCh <- types.Message{
		Event: service.EventCategory,
		Args: []json.RawMessage{
			json.RawMessage(`null`),
			json.RawMessage(`{"username":"alice"}`),
		},
	}
	time.Sleep(50 * time.Millisecond)

	_, ok := store.category("selectedCategories:alice")
	assert.False(t, ok, "invalid category must not be stored")
}

func TestRelayEventBroadcastVerbatim(t *testing.T) {
	h, _ := newTestService(t)
	_, conn := registerClient(t, h, "client-a")

	payload := json.RawMessage(`{"id":"m1","text":"hi"}`)
	h.Broadcast(types.Message{Event: "message received", Args: []json.RawMessage{payload}})
	time.Sleep(50 * time.Millisecond)

	written := conn.getWritten()
	require.Len(t, written, 1)
	assert.Equal(t, "message received", written[0].Event)
	assert.JSONEq(t, string(payload), string(written[0].Arg(0)))
}
