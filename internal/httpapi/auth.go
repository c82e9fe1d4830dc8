package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	contextKeyUserID  = "auth_user_id"
	contextKeyIsAdmin = "auth_is_admin"
)

var errInvalidToken = errors.New("invalid token")

// accessClaims carries the user id in the registered subject plus an
// admin marker for the operator-only routes.
type accessClaims struct {
	jwt.RegisteredClaims
	Admin bool `json:"adm,omitempty"`
}

// Authenticator issues and verifies HS256 bearer tokens carrying a user id.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	nowFn  func() time.Time
}

// NewAuthenticator wires an Authenticator from the API configuration.
func NewAuthenticator(cfg Config, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{
		secret: []byte(cfg.TokenSecret),
		issuer: cfg.TokenIssuer,
		ttl:    cfg.TokenTTL,
		nowFn:  now,
	}
}

// IssueToken signs a token for the user.
func (auth *Authenticator) IssueToken(userID uint64, admin bool) (string, error) {
	now := auth.nowFn()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    auth.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(auth.ttl)),
		},
		Admin: admin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(auth.secret)
}

// ParseToken verifies a token and returns the user id and admin marker it
// carries.
func (auth *Authenticator) ParseToken(raw string) (uint64, bool, error) {
	token, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return auth.secret, nil
	},
		jwt.WithIssuer(auth.issuer),
		jwt.WithTimeFunc(auth.nowFn),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return 0, false, errInvalidToken
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok {
		return 0, false, errInvalidToken
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, false, errInvalidToken
	}
	return userID, claims.Admin, nil
}

// GinMiddleware rejects requests without a valid bearer token and stores
// the authenticated user id on the gin context.
func (auth *Authenticator) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing bearer token"))
			return
		}
		userID, admin, err := auth.ParseToken(strings.TrimSpace(raw))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("unauthorized", "invalid bearer token"))
			return
		}
		ctx.Set(contextKeyUserID, userID)
		ctx.Set(contextKeyIsAdmin, admin)
		ctx.Next()
	}
}

// requireAdmin rejects authenticated requests whose token lacks the admin
// claim. Mounted after GinMiddleware on the operator-only routes.
func requireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		value, ok := ctx.Get(contextKeyIsAdmin)
		admin, _ := value.(bool)
		if !ok || !admin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse("forbidden", "admin access required"))
			return
		}
		ctx.Next()
	}
}

func authenticatedUserID(ctx *gin.Context) (uint64, bool) {
	value, ok := ctx.Get(contextKeyUserID)
	if !ok {
		return 0, false
	}
	userID, ok := value.(uint64)
	return userID, ok && userID != 0
}

// HashPassword derives a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a stored bcrypt hash against a candidate password.
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
