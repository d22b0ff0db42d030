package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/user"
)

var (
	tokenContextKey  = "userToken"
	callerContextKey = "caller"
)

// Caller is the authenticated user a request is made on behalf of.
type Caller struct {
	UserID string
	Email  string
}

// Claims represents the authorization claims transmitted via a JWT.
// Besides the layout issued by this server ({userId, email}), tokens using {id},
// {user: {id|userId, email}} or only the standard `sub` are accepted.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64       `json:"oriat,omitempty"`
	UserID       string      `json:"userId,omitempty"`
	Email        string      `json:"email,omitempty"`
	ID           string      `json:"id,omitempty"`
	User         *userClaims `json:"user,omitempty"`
}

type userClaims struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Caller normalizes the claims. ok is false when no user id can be found.
func (c Claims) Caller() (caller Caller, ok bool) {
	var nested userClaims
	if c.User != nil {
		nested = *c.User
	}
	caller.UserID = firstNonEmpty(c.UserID, nested.ID, nested.UserID, c.ID, c.Subject)
	caller.Email = firstNonEmpty(c.Email, nested.Email)
	return caller, caller.UserID != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// NewClaims returns the claims of a fresh token for usr.
// origIat is kept across refreshes so the refresh window cannot be extended forever.
func NewClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		UserID:       usr.ID,
		Email:        usr.Email,
	}
}

// GenerateToken signs claims with the application secret.
func GenerateToken(conf *core.Config, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

type authenticator struct {
	conf      *core.Config
	jwtConfig middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	return &authenticator{
		conf: conf,
		jwtConfig: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    tokenContextKey,
			Claims:        new(Claims),
		},
	}
}

// middleware verifies the bearer token and stores the Caller on the context.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	verify := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			caller, ok := claims.Caller()
			if !ok {
				return errUnauthorized
			}
			ctx.Set(callerContextKey, caller)
			return next(ctx)
		})
	}
}

func (a *authenticator) token(usr user.User, origIat ...int64) (string, error) {
	return GenerateToken(a.conf, NewClaims(a.conf, usr, origIat...))
}

// refresh re-issues the caller's token as long as the first token of the chain
// was issued less than JWTRefreshExpirationDelta ago.
func (a *authenticator) refresh(ctx echo.Context, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	caller, err := getCaller(ctx)
	if err != nil {
		return "", err
	}

	usr, err := svc.GetByID(ctx.Request().Context(), caller.UserID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "finding user by ID")
	}

	oriat := claims.OrigIssuedAt
	if oriat == 0 {
		oriat = claims.IssuedAt
	}
	expTime := time.Unix(oriat, 0).Add(a.conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}
	return a.token(usr, oriat)
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getCaller(ctx echo.Context) (Caller, error) {
	if caller, ok := ctx.Get(callerContextKey).(Caller); ok {
		return caller, nil
	}
	return Caller{}, errUnauthorized
}
