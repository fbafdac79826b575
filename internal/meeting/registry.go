// Package meeting correlates video-call rooms with the client/therapist
// pair that started them, so an asynchronously delivered recording can be
// attributed to the right participants after the call ends.
package meeting

import "sync"

// Session is the ephemeral record of an active video call. It exists only
// to label a recording after the fact.
type Session struct {
	MeetingID   string `json:"meeting_id"`
	ClientID    string `json:"client_id"`
	TherapistID string `json:"therapist_id"`
}

// SessionStore tracks active meeting sessions. Implementations are safe
// for concurrent use.
type SessionStore interface {
	// Put stores the participant pair for a meeting, overwriting any
	// existing entry for that meeting id.
	Put(meetingID, clientID, therapistID string)
	// Get returns the session for a meeting id.
	Get(meetingID string) (Session, bool)
	// FindByParticipants returns the meeting id most recently stored for
	// the pair. Last write wins when several meetings share a pair.
	FindByParticipants(clientID, therapistID string) (string, bool)
	// Remove deletes a session. Removing an absent meeting id is not an
	// error.
	Remove(meetingID string)
}

type registryEntry struct {
	session Session
	seq     uint64
}

// Registry is the in-memory SessionStore. State is lost on process
// restart; orphaned recordings can still be saved manually by re-deriving
// the pair.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
	seq     uint64
}

// NewRegistry creates an empty in-memory session registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

func (r *Registry) Put(meetingID, clientID, therapistID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.entries[meetingID] = registryEntry{
		session: Session{MeetingID: meetingID, ClientID: clientID, TherapistID: therapistID},
		seq:     r.seq,
	}
}

func (r *Registry) Get(meetingID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[meetingID]
	return entry.session, ok
}

func (r *Registry) FindByParticipants(clientID, therapistID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best    string
		bestSeq uint64
		found   bool
	)
	for id, entry := range r.entries {
		if entry.session.ClientID != clientID || entry.session.TherapistID != therapistID {
			continue
		}
		if !found || entry.seq > bestSeq {
			best = id
			bestSeq = entry.seq
			found = true
		}
	}
	return best, found
}

func (r *Registry) Remove(meetingID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, meetingID)
}
