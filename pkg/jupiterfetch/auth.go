package jupiterfetch

import (
	"context"
	"errors"
	"net/http"
)

var ErrNotImplemented = errors.New("jupiterfetch: student portal authentication is not implemented")

type Credentials struct {
	User     string
	Password string
}

// Session holds the cookies of an authenticated student portal session.
type Session struct {
	Cookies []*http.Cookie
}

// Authenticator logs into the student specific portal.
type Authenticator interface {
	Login(ctx context.Context, credentials Credentials) (*Session, error)
}

// PortalAuthenticator is the student portal login. It is not implemented yet.
type PortalAuthenticator struct{}

func (PortalAuthenticator) Login(ctx context.Context, credentials Credentials) (*Session, error) {
	return nil, ErrNotImplemented
}
