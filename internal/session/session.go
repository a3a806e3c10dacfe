// Package session keeps the browser side state of the storefront in a signed
// cookie: the logged-in user id and the guest cart.
package session

import (
	"context"
	"encoding/gob"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"

	"github.com/MikeMC777/konki-burger/internal/cart"
)

const (
	CookieName = "konki-session"
	userKey    = "user_id"
	cartKey    = "guest_cart"
)

func init() {
	gob.Register(map[string]int{})
}

// Store wraps a gorilla CookieStore.
type Store struct {
	cookies *sessions.CookieStore
}

func NewStore(secret string) *Store {
	cs := sessions.NewCookieStore([]byte(secret))
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cs}
}

func (s *Store) get(c *gin.Context) *sessions.Session {
	// a cookie that fails to decode yields a fresh session
	sess, _ := s.cookies.Get(c.Request, CookieName)
	return sess
}

// UserID returns the logged-in user id, or "" for a guest.
func (s *Store) UserID(c *gin.Context) string {
	id, _ := s.get(c).Values[userKey].(string)
	return id
}

// Login binds the session to uid.
func (s *Store) Login(c *gin.Context, uid string) error {
	sess := s.get(c)
	sess.Values[userKey] = uid
	return sess.Save(c.Request, c.Writer)
}

// Logout forgets the user. The guest cart starts empty afterwards.
func (s *Store) Logout(c *gin.Context) error {
	sess := s.get(c)
	delete(sess.Values, userKey)
	delete(sess.Values, cartKey)
	return sess.Save(c.Request, c.Writer)
}

// Guest returns the guest cart stored in the request cookie.
func (s *Store) Guest(c *gin.Context) cart.GuestStore {
	return &guestCart{store: s, c: c}
}

type guestCart struct {
	store *Store
	c     *gin.Context
}

func (g *guestCart) Load(context.Context) (cart.Quantities, error) {
	raw, _ := g.store.get(g.c).Values[cartKey].(map[string]int)
	q := cart.Quantities{}
	for id, n := range raw {
		if n > 0 {
			q[id] = n
		}
	}
	return q, nil
}

func (g *guestCart) Save(_ context.Context, q cart.Quantities) error {
	sess := g.store.get(g.c)
	raw := make(map[string]int, len(q))
	for id, n := range q {
		if n > 0 {
			raw[id] = n
		}
	}
	sess.Values[cartKey] = raw
	return sess.Save(g.c.Request, g.c.Writer)
}

func (g *guestCart) Clear(context.Context) error {
	sess := g.store.get(g.c)
	delete(sess.Values, cartKey)
	return sess.Save(g.c.Request, g.c.Writer)
}
