package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"harmonychain/models"

	"github.com/golang-jwt/jwt/v4"
)

type sessionKey struct{}

// SessionTokens signs session ids into the cookie value.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionTokens(secret string, ttl time.Duration) SessionTokens {
	return SessionTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t SessionTokens) Issue(sessionID string) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	})
	return token.SignedString(t.secret)
}

// Parse returns the session id of a valid, unexpired token.
func (t SessionTokens) Parse(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.ID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.ID, nil
}

// SessionMiddleware attaches the caller's session to the request context,
// starting a fresh one when the cookie is missing, forged, expired or
// points at a session that no longer exists.
func (h Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.resolveSession(r)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "resolve session", "error", err)
			respondWithError(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		if err := h.setSessionCookie(w, sess.ID); err != nil {
			h.logger.ErrorContext(r.Context(), "issue session cookie", "error", err)
			respondWithError(w, http.StatusInternalServerError, "session unavailable")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h Handler) resolveSession(r *http.Request) (models.Session, error) {
	ctx := r.Context()
	if c, err := r.Cookie(h.cookie.Name); err == nil {
		if id, err := h.tokens.Parse(c.Value); err == nil {
			sess, err := h.svc.ResumeSession(ctx, id)
			if err == nil {
				return sess, nil
			}
			if !errors.Is(err, models.ErrSessionNotFound) {
				return models.Session{}, err
			}
		} else {
			h.logger.DebugContext(ctx, "discarding session cookie", "error", err)
		}
	}
	return h.svc.StartSession(ctx)
}

// setSessionCookie replaces any session cookie already queued on w.
func (h Handler) setSessionCookie(w http.ResponseWriter, sessionID string) error {
	token, err := h.tokens.Issue(sessionID)
	if err != nil {
		return err
	}
	hdr := w.Header()
	var kept []string
	for _, c := range hdr.Values("Set-Cookie") {
		if !strings.HasPrefix(c, h.cookie.Name+"=") {
			kept = append(kept, c)
		}
	}
	hdr.Del("Set-Cookie")
	for _, c := range kept {
		hdr.Add("Set-Cookie", c)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func sessionFrom(ctx context.Context) (models.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(models.Session)
	return sess, ok
}
