package marketplace

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/platform/httpx"
	"github.com/imranshabbir-developer/project-management/internal/platform/requestctx"
)

// TokenConfig configures bearer token verification.
type TokenConfig struct {
	// Secret is the shared HS256 signing key.
	Secret   []byte
	Issuer   string
	Audience string
	Now      func() time.Time
}

// Claims is the access token payload accepted by the API.
type Claims struct {
	jwt.RegisteredClaims
	// Role is a hint only; authorization uses the stored role.
	Role string `json:"role,omitempty"`
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	cfg    TokenConfig
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier. An empty secret is rejected.
func NewTokenVerifier(cfg TokenConfig) (*TokenVerifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if issuer := strings.TrimSpace(cfg.Issuer); issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(cfg.Audience); audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &TokenVerifier{cfg: cfg, parser: jwt.NewParser(opts...)}, nil
}

// Verify parses token and returns the actor it names.
func (v *TokenVerifier) Verify(token string) (requestctx.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required")
	}
	var claims Claims
	_, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.cfg.Secret, nil
	})
	if err != nil {
		return requestctx.Actor{}, mapJWTError(err)
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return requestctx.Actor{}, apperrors.New(apperrors.CodeUnauthenticated, "token subject is required")
	}
	return requestctx.Actor{UserID: subject, Role: strings.TrimSpace(claims.Role)}, nil
}

// Sign issues a token for subject. Used by tests and local tooling.
func (v *TokenVerifier) Sign(subject, role string, ttl time.Duration) (string, error) {
	now := v.cfg.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    strings.TrimSpace(v.cfg.Issuer),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	if audience := strings.TrimSpace(v.cfg.Audience); audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.cfg.Secret)
}

// Authenticate resolves the bearer token into a request actor.
func (v *TokenVerifier) Authenticate(errs httpx.ErrorWriter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := v.Verify(bearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="marketplace"`)
			errs.Write(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), actor)))
	})
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token was issued for another service", err)
	default:
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
	}
}
