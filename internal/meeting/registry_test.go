package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry()

	r.Put("m1", "c1", "t1")

	session, ok := r.Get("m1")
	require.True(t, ok)
	assert.Equal(t, Session{MeetingID: "m1", ClientID: "c1", TherapistID: "t1"}, session)

	r.Remove("m1")
	_, ok = r.Get("m1")
	assert.False(t, ok)
}

func TestRegistry_PutOverwrites(t *testing.T) {
	r := NewRegistry()

	r.Put("m1", "c1", "t1")
	r.Put("m1", "c2", "t2")

	session, ok := r.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "c2", session.ClientID)
	assert.Equal(t, "t2", session.TherapistID)
}

func TestRegistry_RemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove("never-stored")

	_, ok := r.Get("never-stored")
	assert.False(t, ok)
}

func TestRegistry_FindByParticipants(t *testing.T) {
	r := NewRegistry()

	r.Put("m1", "c1", "t1")
	r.Put("m2", "c2", "t1")

	id, ok := r.FindByParticipants("c1", "t1")
	require.True(t, ok)
	assert.Equal(t, "m1", id)

	_, ok = r.FindByParticipants("c1", "t2")
	assert.False(t, ok)
}

func TestRegistry_FindByParticipantsLastWriteWins(t *testing.T) {
	r := NewRegistry()

	r.Put("m1", "c1", "t1")
	r.Put("m2", "c1", "t1")
	r.Put("m3", "c1", "t1")

	id, ok := r.FindByParticipants("c1", "t1")
	require.True(t, ok)
	assert.Equal(t, "m3", id)

	// Re-putting an older meeting makes it the most recent again.
	r.Put("m1", "c1", "t1")
	id, ok = r.FindByParticipants("c1", "t1")
	require.True(t, ok)
	assert.Equal(t, "m1", id)
}
