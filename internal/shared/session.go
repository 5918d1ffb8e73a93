package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store manages cookie based web sessions backed by Redis. A web session
// carries at most the persisted subject binding and the CSRF token; all
// principal state lives with the session manager.
type Store struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// WebSession is the per-request view of a web session.
type WebSession struct {
	ID        string
	subject   string
	csrf      string
	issuedAt  time.Time
	isNew     bool
	dirty     bool
	destroyed bool
}

type webSessionPayload struct {
	Subject  string    `json:"subject,omitempty"`
	CSRF     string    `json:"csrf,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// NewStore constructs a session Store.
func NewStore(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *Store {
	return &Store{client: client, cookieName: cookieName, ttl: ttl, secure: secure}
}

// Load reads the web session for a request, creating a fresh one when no
// valid cookie is present.
func (s *Store) Load(ctx context.Context, r *http.Request) (*WebSession, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return s.newSession(), nil
		}
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			sess := s.newSession()
			sess.ID = cookie.Value
			return sess, nil
		}
		return nil, err
	}

	var stored webSessionPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &WebSession{
		ID:       cookie.Value,
		subject:  stored.Subject,
		csrf:     stored.CSRF,
		issuedAt: stored.IssuedAt,
	}, nil
}

// Commit persists the session and writes cookie headers as needed.
func (s *Store) Commit(ctx context.Context, w http.ResponseWriter, sess *WebSession) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		if err := s.client.Del(ctx, s.key(sess.ID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if sess.dirty || sess.isNew {
		payload := webSessionPayload{Subject: sess.subject, CSRF: sess.csrf, IssuedAt: sess.issuedAt}
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.isNew = false
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(s.ttl),
	})
	return nil
}

// Destroy marks the session for deletion on commit.
func (s *Store) Destroy(sess *WebSession) {
	if sess != nil {
		sess.destroyed = true
	}
}

// TTL exposes the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// CookieName returns the session cookie identifier.
func (s *Store) CookieName() string {
	return s.cookieName
}

func (s *Store) newSession() *WebSession {
	return &WebSession{
		ID:       uuid.NewString(),
		issuedAt: time.Now().UTC(),
		isNew:    true,
		dirty:    true,
	}
}

func (s *Store) key(id string) string {
	return "websess:" + id
}

// Bind associates the session with an authenticated subject.
func (sess *WebSession) Bind(subjectID string) {
	sess.subject = subjectID
	sess.dirty = true
}

// Unbind clears the subject association.
func (sess *WebSession) Unbind() {
	if sess.subject != "" {
		sess.subject = ""
		sess.dirty = true
	}
}

// Subject returns the bound subject, empty when anonymous.
func (sess *WebSession) Subject() string {
	return sess.subject
}
