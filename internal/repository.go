package internal

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Persisted keys
const (
	SessionsKey       = "tusty_chat_sessions"
	CurrentSessionKey = "tusty_current_session"
	LegacyHistoryKey  = "tusty_chat_history"
)

// MaxSessions bounds the persisted collection to the most recently touched entries.
const MaxSessions = 50

// Repository owns the session collection and the current-session pointer.
// It is the only component that reads or writes those keys. All
// read-modify-write sequences run under one mutex.
type Repository struct {
	mu          sync.Mutex
	store       Store
	now         func() time.Time
	maxSessions int
	onEvict     func(evicted int)
}

// RepositoryOption configures a Repository
type RepositoryOption func(*Repository)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// WithEvictionHook is called with the number of sessions dropped by the cap.
func WithEvictionHook(fn func(evicted int)) RepositoryOption {
	return func(r *Repository) { r.onEvict = fn }
}

// NewRepository creates a Repository over store
func NewRepository(store Store, opts ...RepositoryOption) *Repository {
	r := &Repository{
		store:       store,
		now:         time.Now,
		maxSessions: MaxSessions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the repository clock's current time.
func (r *Repository) Now() time.Time {
	return r.now()
}

// ListSessions returns all sessions, most recently updated first. Ties keep
// their stored order.
func (r *Repository) ListSessions() []ChatSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load()
	sortByRecency(sessions)
	out := make([]ChatSession, len(sessions))
	for i, s := range sessions {
		out[i] = s.clone()
	}
	return out
}

// Session returns the session with the given id
func (r *Repository) Session(id string) (ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load()
	if i := indexOf(sessions, id); i >= 0 {
		return sessions[i].clone(), true
	}
	return ChatSession{}, false
}

// CurrentID returns the raw current pointer without creating anything.
func (r *Repository) CurrentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentID()
}

// CurrentSession ensures a current session exists and returns it. When the
// pointer names no stored session, a new empty session is created, inserted
// at the front, persisted and made current.
func (r *Repository) CurrentSession() (ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessions := r.load()
	if i := indexOf(sessions, r.currentID()); i >= 0 {
		return sessions[i].clone(), nil
	}
	LogDebug("No current session, creating one")
	return r.createLocked(sessions)
}

// NewSession creates and activates a fresh empty session ahead of all others.
// Existing sessions are kept.
func (r *Repository) NewSession() (ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(r.load())
}

// Select makes id the current session.
func (r *Repository) Select(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.load(), id) < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return r.store.Set(CurrentSessionKey, id)
}

// MutateCurrent applies fn to the current session and persists the result.
// If the current session no longer exists the call is a logged no-op.
func (r *Repository) MutateCurrent(fn func(ChatSession) ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.mutateLocked(r.currentID(), always(fn))
	return err
}

// MutateSession applies fn to the session with the given id, with the same
// no-op rule as MutateCurrent.
func (r *Repository) MutateSession(id string, fn func(ChatSession) ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.mutateLocked(id, always(fn))
	return err
}

// ReplaceMessage swaps the message whose ID is messageID in session id for m.
// Every other message passes through unchanged. When the session or the
// message is gone nothing is written and replaced is false.
func (r *Repository) ReplaceMessage(id, messageID string, m Message) (replaced bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mutateLocked(id, func(s ChatSession) (ChatSession, bool) {
		msgs, ok := ReplaceByID(s.Messages, messageID, m)
		s.Messages = msgs
		return s, ok
	})
}

// ReplaceByID returns a copy of msgs with the entry whose ID matches
// replaced by m.
func ReplaceByID(msgs []Message, id string, m Message) ([]Message, bool) {
	out := make([]Message, len(msgs))
	found := false
	for i, msg := range msgs {
		if id != "" && msg.ID == id {
			out[i] = m
			found = true
			continue
		}
		out[i] = msg
	}
	return out, found
}

func always(fn func(ChatSession) ChatSession) func(ChatSession) (ChatSession, bool) {
	return func(s ChatSession) (ChatSession, bool) { return fn(s), true }
}

// MigrateLegacyIfNeeded converts the legacy single-history record into one
// session. It runs only while the collection is empty; once any session
// exists it never runs again. Reports whether a migration happened.
func (r *Repository) MigrateLegacyIfNeeded() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.load()) > 0 {
		return false, nil
	}

	raw, ok, err := r.store.Get(LegacyHistoryKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	msgs, perr := decodeLegacyHistory(raw)
	if perr != nil {
		LogWarn("Discarding unreadable legacy history: %v", perr)
	}

	title := MigratedTitle
	committed := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		// a placeholder left in the legacy record can never resolve
		m.ID = ""
		committed = append(committed, m)
		if title == MigratedTitle && m.Role == RoleUser {
			title = DeriveTitle(m.Text)
		}
	}

	now := r.now().UnixMilli()
	session := ChatSession{
		ID:        NewSessionID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  committed,
	}

	// collection first: once it is non-empty a partial write can't re-run migration
	if err := r.save([]ChatSession{session}); err != nil {
		return false, err
	}
	if err := r.store.Set(CurrentSessionKey, session.ID); err != nil {
		return true, err
	}
	if err := r.store.Remove(LegacyHistoryKey); err != nil {
		return true, err
	}

	Logger().Info().
		Str("session", session.ID).
		Int("messages", len(committed)).
		Msg("Migrated legacy chat history")
	return true, nil
}

// createLocked stamps the new session after every existing one so it sorts
// first and survives the cap even when the clock lags stored timestamps.
func (r *Repository) createLocked(sessions []ChatSession) (ChatSession, error) {
	var newest int64
	for _, s := range sessions {
		if s.UpdatedAt > newest {
			newest = s.UpdatedAt
		}
	}
	now := r.stamp(newest)
	session := ChatSession{
		ID:        NewSessionID(),
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}

	all := make([]ChatSession, 0, len(sessions)+1)
	all = append(all, session)
	all = append(all, sessions...)
	if err := r.save(all); err != nil {
		return ChatSession{}, err
	}
	if err := r.store.Set(CurrentSessionKey, session.ID); err != nil {
		return ChatSession{}, err
	}
	return session.clone(), nil
}

// mutateLocked applies fn to session id. fn reports whether it changed
// anything; unchanged sessions are not rewritten.
func (r *Repository) mutateLocked(id string, fn func(ChatSession) (ChatSession, bool)) (bool, error) {
	sessions := r.load()
	i := indexOf(sessions, id)
	if i < 0 {
		Logger().Warn().Str("session", id).Msg("Mutation target no longer exists, skipping")
		return false, nil
	}

	orig := sessions[i]
	updated, changed := fn(orig.clone())
	if !changed {
		return false, nil
	}
	updated.ID = orig.ID
	updated.CreatedAt = orig.CreatedAt
	updated = withDerivedTitle(updated)
	updated.UpdatedAt = r.stamp(orig.UpdatedAt)
	sessions[i] = updated

	return true, r.save(sessions)
}

// stamp returns a timestamp strictly after prev.
func (r *Repository) stamp(prev int64) int64 {
	now := r.now().UnixMilli()
	if now <= prev {
		now = prev + 1
	}
	return now
}

func (r *Repository) load() []ChatSession {
	raw, ok, err := r.store.Get(SessionsKey)
	if err != nil {
		LogWarn("Failed to read sessions, treating as empty: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	sessions, err := decodeSessions(raw)
	if err != nil {
		LogWarn("Ignoring malformed session data: %v", err)
		return nil
	}
	return sessions
}

func (r *Repository) currentID() string {
	id, ok, err := r.store.Get(CurrentSessionKey)
	if err != nil {
		LogWarn("Failed to read current session pointer: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	return id
}

// save re-sorts, applies the cap and persists the collection.
func (r *Repository) save(sessions []ChatSession) error {
	sortByRecency(sessions)
	if len(sessions) > r.maxSessions {
		evicted := len(sessions) - r.maxSessions
		for _, s := range sessions[r.maxSessions:] {
			LogDebug("Evicting session %s (%q)", s.ID, s.Title)
		}
		sessions = sessions[:r.maxSessions]
		if r.onEvict != nil {
			r.onEvict(evicted)
		}
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}
	return r.store.Set(SessionsKey, string(data))
}

func sortByRecency(sessions []ChatSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt > sessions[j].UpdatedAt
	})
}

func indexOf(sessions []ChatSession, id string) int {
	if id == "" {
		return -1
	}
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}
