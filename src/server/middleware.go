package server

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
)

// tokenMiddleware extracts the session token from the request and
// attaches it as a bearer header to every outbound backend client, so
// forwarded REST calls arrive authenticated. Requests without a token
// pass through untouched.
func (s *Server) tokenMiddleware(c fiber.Ctx) error {
	token := sessionToken(c)
	if token == "" {
		return c.Next()
	}

	if secret := s.cfg.Auth.JWTSecret; secret != "" {
		if err := verifyToken(token, secret); err != nil {
			s.logger.Warn().Err(err).Msg("invalid session token")
			return c.Next()
		}
	}

	c.Locals("jwt", token)
	if s.registry != nil {
		s.registry.SetBearerAll(token)
	}
	return c.Next()
}

// sessionToken reads the token from the Authorization header or the
// session cookie, in that order.
func sessionToken(c fiber.Ctx) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return tok
		}
	}
	return c.Cookies("session")
}

// verifyToken checks the token signature against the shared secret.
func verifyToken(token, secret string) error {
	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	return err
}
