package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/rollcall/core"
)

const (
	jwtContextKey = "sessionToken"
	jwtAudience   = "Academia"
)

var errInvalidRole = errors.New("invalid role")

// Claims represents the authorization claims transmitted via a JWT.
// They carry the whole core.Session so no lookup is needed per request.
type Claims struct {
	jwt.StandardClaims
	Name    string `json:"name,omitempty"`
	Role    string `json:"role"`
	Class   string `json:"class,omitempty"`   // class teachers only
	Section string `json:"section,omitempty"` // class teachers only
}

// Valid also rejects unknown roles; the system role is never handed out in tokens.
func (c Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if err := core.Validate.Var(c.Role, "role"); err != nil {
		return errInvalidRole
	}
	return nil
}

func (c Claims) Session() core.Session {
	return core.Session{
		UserID:  c.Subject,
		Name:    c.Name,
		Role:    c.Role,
		Class:   c.Class,
		Section: c.Section,
	}
}

func NewClaims(sess core.Session, conf *core.Config) *Claims {
	now := core.NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   sess.UserID,
			Audience:  jwtAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:    sess.Name,
		Role:    sess.Role,
		Class:   sess.Class,
		Section: sess.Section,
	}
}

// GenerateToken generates a signed JWT token string representing the session Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func newJWTMiddleware(conf *core.Config) echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextSession(ctx echo.Context) (core.Session, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return core.Session{}, err
	}
	return claims.Session(), nil
}

