package echoapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

const (
	tokenAudience        = "Empoderar"
	headerAcceptLanguage = "Accept-Language"
)

var (
	errRefreshExpired = core.NewAppError(core.CodeForbidden, "refresh has expired")
	errInvalidToken   = errors.New("invalid token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

// TokenIssuer signs the JWTs handed out to API clients and verifies the ones they send back.
type TokenIssuer struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			AuthScheme:    "Bearer",
		},
	}
}

func (ti *TokenIssuer) GetUserClaims(usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(ti.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (ti *TokenIssuer) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(ti.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(ti.jwtConfig.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (ti *TokenIssuer) IssueToken(usr user.User) (string, error) {
	return ti.GenerateToken(ti.GetUserClaims(usr))
}

// ParseToken verifies the signature and the expiry of a token and returns its claims.
func (ti *TokenIssuer) ParseToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != ti.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return ti.jwtConfig.SigningKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errInvalidToken
	}
	return claims, nil
}

// RefreshToken re-issues the token of the current request while its refresh window is open.
func (ti *TokenIssuer) RefreshToken(ctx context.Context, usr user.User) (string, error) {
	claims, ok := claimsFromContext(ctx)
	if !ok {
		return "", core.ErrUnauthenticated
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(ti.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}
	return ti.GenerateToken(ti.GetUserClaims(usr, claims.OrigIssuedAt))
}

// bearerToken extracts the token from the Authorization header, if any.
func (ti *TokenIssuer) bearerToken(r *http.Request) string {
	auth := r.Header.Get(echo.HeaderAuthorization)
	l := len(ti.jwtConfig.AuthScheme)
	if len(auth) > l+1 && strings.EqualFold(auth[:l], ti.jwtConfig.AuthScheme) {
		return strings.TrimSpace(auth[l+1:])
	}
	return ""
}

type claimsCtxKey struct{}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

func claimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey{}).(*Claims)
	return claims, ok
}

// authMiddleware resolves the request user from its bearer token.
// Requests without a valid token, or whose user is gone or deactivated, go on anonymously.
func authMiddleware(tokens *TokenIssuer, users *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			lang := req.Header.Get(headerAcceptLanguage)
			if lang == "" {
				lang = core.DefaultLanguage
			}

			if raw := tokens.bearerToken(req); raw != "" {
				if claims, err := tokens.ParseToken(raw); err == nil {
					usr, err := users.GetByID(ctx, claims.Subject)
					switch {
					case err == nil && usr.IsActive:
						ctx = withClaims(user.NewContext(ctx, usr), claims)
						lang = usr.Language()
					case err != nil && errors.Cause(err) != user.ErrNotFound:
						return errors.Wrap(err, "finding token user")
					}
				}
			}

			c.SetRequest(req.WithContext(core.WithLanguage(ctx, lang)))
			return next(c)
		}
	}
}
