package measure

import "sync"

// Tracker holds pending pre captures for hosts that deliver pre and post as
// separate callbacks.
//
// Records are keyed by Key. Each Pre call gets a fresh instance token, so
// two units with the same identity (or the same unit compiled twice) are
// tracked independently.
//
// Thread-safety: all methods are safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	pending map[Key]*Unit
	gen     TokenGenerator
	clock   *Clock
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTokenGenerator overrides the instance token generator.
// Tests use NewFixedGenerator for deterministic keys.
func WithTokenGenerator(gen TokenGenerator) TrackerOption {
	return func(t *Tracker) {
		t.gen = gen
	}
}

// NewTracker creates an empty tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		pending: make(map[Key]*Unit),
		gen:     UUIDv7Generator{},
		clock:   NewClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Pre performs the pre capture and stores the record under a new key.
func (t *Tracker) Pre(source, identity string) (Key, error) {
	u, err := capture(source, identity, t.gen.Generate(), t.clock.Next())
	if err != nil {
		return Key{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[u.key] = u
	return u.key, nil
}

// Post completes the record stored under key and removes it.
// Returns UNMATCHED_POST if no record is pending for key.
func (t *Tracker) Post(key Key, output string) (Measurement, error) {
	t.mu.Lock()
	u, ok := t.pending[key]
	if ok {
		delete(t.pending, key)
	}
	t.mu.Unlock()

	if !ok {
		return Measurement{}, NewUnmatchedPostError(key)
	}
	return t.complete(u, output)
}

// PostLatest completes the most recent unmatched pre capture for identity.
// Returns UNMATCHED_POST if no record is pending for that identity.
func (t *Tracker) PostLatest(identity, output string) (Measurement, error) {
	id := NormalizeIdentity(identity)

	t.mu.Lock()
	var latest *Unit
	for k, u := range t.pending {
		if k.Identity != id {
			continue
		}
		if latest == nil || u.seq > latest.seq {
			latest = u
		}
	}
	if latest != nil {
		delete(t.pending, latest.key)
	}
	t.mu.Unlock()

	if latest == nil {
		return Measurement{}, NewUnmatchedPostError(Key{Identity: id})
	}
	return t.complete(latest, output)
}

// complete posts u, which the caller has already removed from pending.
func (t *Tracker) complete(u *Unit, output string) (Measurement, error) {
	m, err := u.Post(output)
	if IsInvalidUTF8(err) {
		// Output rejected; the record stays pending so the host can retry.
		t.mu.Lock()
		t.pending[u.key] = u
		t.mu.Unlock()
	}
	return m, err
}

// Pending returns the number of pre captures still waiting for a post.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Discard drops the pending record for key, if any. Hosts call it when a
// transformation fails and no post capture will follow.
func (t *Tracker) Discard(key Key) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[key]; !ok {
		return false
	}
	delete(t.pending, key)
	return true
}
