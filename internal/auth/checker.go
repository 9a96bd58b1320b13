package auth

import "context"

var _ Checker = (*LoginChecker)(nil)
var _ Checker = (*LoginTestChecker)(nil)

// Checker resolves a login token. A nil session with nil error means not logged in.
type Checker interface {
	IsLogged(ctx context.Context, token string) (*LoginSession, error)
}

type LoginTestChecker struct {
	// token -> username
	LoggedSessions map[string]string
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]string{},
	}
}

func (c *LoginTestChecker) IsLogged(_ context.Context, token string) (*LoginSession, error) {
	username, ok := c.LoggedSessions[token]
	if !ok {
		return nil, nil
	}
	return &LoginSession{Token: token, Username: username}, nil
}

type sessionCtxKey struct{}

func ContextWithSession(ctx context.Context, session *LoginSession) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

// SessionFromContext returns the login session put there by the auth middleware.
func SessionFromContext(ctx context.Context) (*LoginSession, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*LoginSession)
	return session, ok && session != nil
}
