package server

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/chrisvdg/dioadmin/cache"
	"github.com/chrisvdg/dioadmin/client"
	"github.com/chrisvdg/dioadmin/view"
)

// ErrSessionInvalid represents a missing, expired or tampered session
var ErrSessionInvalid = errors.New("invalid or expired session")

const sessionCookie = "dioadmin_session"

// reapInterval is how often expired sessions are swept
const reapInterval = time.Minute

// session bundles everything scoped to one logged-in operator: the
// backend client holding their bearer token, their query cache and
// the mutation runner wired to both
type session struct {
	ID        string
	Profile   client.Profile
	Client    *client.Client
	Cache     *cache.Cache
	Runner    *view.Runner
	CreatedAt time.Time
}

func newSessionStore(secret string, ttl time.Duration) *sessionStore {
	s := &sessionStore{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
	go s.reap()
	return s
}

type sessionStore struct {
	secret []byte
	ttl    time.Duration

	m        sync.Mutex
	sessions map[string]*session
}

// create registers a session and returns it with a signed token for
// the session cookie
func (s *sessionStore) create(p client.Profile, cl *client.Client, ca *cache.Cache) (*session, string, error) {
	sess := &session{
		ID:        uuid.NewString(),
		Profile:   p,
		Client:    cl,
		Cache:     ca,
		Runner:    view.NewRunner(cl, ca),
		CreatedAt: time.Now(),
	}

	claims := jwt.RegisteredClaims{
		Subject:   sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.CreatedAt.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to sign session token")
	}

	s.m.Lock()
	s.sessions[sess.ID] = sess
	s.m.Unlock()
	log.Debugf("session %s created for %s", sess.ID, p.Email)

	return sess, token, nil
}

// resolve returns the session a signed token refers to
func (s *sessionStore) resolve(token string) (*session, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrSessionInvalid
	}

	s.m.Lock()
	defer s.m.Unlock()
	sess, ok := s.sessions[claims.Subject]
	if !ok {
		return nil, ErrSessionInvalid
	}
	return sess, nil
}

// destroy drops a session, clearing its cache and discarding the
// backend credential
func (s *sessionStore) destroy(id string) {
	s.m.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.m.Unlock()

	if !ok {
		return
	}
	sess.Client.ClearToken()
	sess.Cache.Clear()
	sess.Cache.Stop()
	log.Debugf("session %s destroyed", id)
}

// reap sweeps expired sessions for the process lifetime. Operators who
// abandon the dashboard never hit logout, so their sessions must be
// destroyed here or their caches leak.
func (s *sessionStore) reap() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	for range ticker.C {
		s.reapExpired()
	}
}

// reapExpired destroys every session older than the session TTL
func (s *sessionStore) reapExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.m.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.CreatedAt.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	s.m.Unlock()

	for _, id := range expired {
		log.Debugf("session %s expired", id)
		s.destroy(id)
	}
}
