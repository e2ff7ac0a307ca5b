package handler

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/rl1809/cardapio/internal/core/domain"
)

const identityKey = "identity"

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Authenticator turns bearer tokens into caller identities. A nil verifier
// treats every caller as anonymous.
type Authenticator struct {
	verifier  TokenVerifier
	adminRole string
}

func NewAuthenticator(verifier TokenVerifier, adminRole string) *Authenticator {
	return &Authenticator{verifier: verifier, adminRole: adminRole}
}

// Identify resolves an Authorization header value. An empty header is an
// anonymous caller; a bad token is domain.ErrUnauthenticated.
func (a *Authenticator) Identify(ctx context.Context, header string) (domain.Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return domain.Identity{}, nil
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	idToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if idToken == "" || a.verifier == nil {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	token, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		log.WithError(err).Debug("ID token rejected")
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	uid := strings.TrimSpace(token.UID)
	if uid == "" {
		return domain.Identity{}, domain.ErrUnauthenticated
	}

	id := domain.Identity{UserID: uid}
	if e, ok := token.Claims["email"].(string); ok {
		id.Email = strings.TrimSpace(e)
	}
	if r, ok := token.Claims["role"].(string); ok && r == a.adminRole {
		id.Role = domain.RoleAdmin
	}
	if isAdmin, ok := token.Claims["admin"].(bool); ok && isAdmin {
		id.Role = domain.RoleAdmin
	}
	return id, nil
}

// Middleware stores the caller identity on the gin context. Requests without
// a token continue anonymously; requests with an invalid token are rejected.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.Identify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "token inválido"})
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

func caller(c *gin.Context) domain.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(domain.Identity); ok {
			return id
		}
	}
	return domain.Identity{}
}
