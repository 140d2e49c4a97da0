package utils // package utils provides helpers for password hashing and session tokens

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/iliyamo/complaint-tracker/internal/apperr"
    "github.com/iliyamo/complaint-tracker/internal/model"
)

// DefaultTokenTTL is the lifetime of a session token.
const DefaultTokenTTL = 24 * time.Hour

// clockSkew is the tolerance applied to exp and nbf when verifying, so
// instances with slightly different clocks accept each other's tokens.
const clockSkew = 5 * time.Second

// minSecretBytes guards against trivially guessable HMAC keys.
const minSecretBytes = 16

// ErrWeakSecret is returned by NewTokenManager for an empty or short secret.
var ErrWeakSecret = errors.New("jwt secret must be at least 16 bytes")

// AccessToken represents a signed JWT along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// Claims is the verified payload of a session token.  It is the only source
// of caller identity for protected handlers.
type Claims struct {
    UserID    string
    Role      model.Role
    IssuedAt  time.Time
    ExpiresAt time.Time
}

// sessionClaims is the wire form: standard sub/iat/nbf/exp plus role.
type sessionClaims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.  It holds the
// signing secret so that no handler reaches for it through globals.
type TokenManager struct {
    secret []byte
    ttl    time.Duration
    now    func() time.Time
}

// NewTokenManager builds a TokenManager.  A zero ttl means DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
    if len(secret) < minSecretBytes {
        return nil, ErrWeakSecret
    }
    if ttl <= 0 {
        ttl = DefaultTokenTTL
    }
    return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
    cp := *m
    cp.now = now
    return &cp
}

// TTL returns the configured token lifetime.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue signs a token for the user.  The JWT includes subject (sub), role,
// issued at (iat), not before (nbf) and expiration (exp).
func (m *TokenManager) Issue(userID string, role model.Role) (AccessToken, error) {
    now := m.now().UTC()
    exp := now.Add(m.ttl)
    claims := sessionClaims{
        Role: string(role),
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   userID,
            IssuedAt:  jwt.NewNumericDate(now),
            NotBefore: jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString(m.secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp.Truncate(time.Second)}, nil
}

// Verify checks signature, algorithm, expiry and not-before, and returns the
// claims.  Failures are *apperr.Error of kind Unauthenticated with code
// token_expired, token_not_active or token_invalid.
func (m *TokenManager) Verify(raw string) (Claims, error) {
    var sc sessionClaims
    tok, err := jwt.ParseWithClaims(raw, &sc, func(t *jwt.Token) (interface{}, error) {
        return m.secret, nil
    },
        jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithTimeFunc(m.now),
        jwt.WithLeeway(clockSkew),
    )
    if err != nil {
        return Claims{}, classify(err)
    }
    if !tok.Valid {
        return Claims{}, apperr.Unauthenticated(apperr.CodeTokenInvalid, "invalid token")
    }
    role, ok := model.ParseRole(sc.Role)
    if !ok || sc.Subject == "" {
        return Claims{}, apperr.Unauthenticated(apperr.CodeTokenInvalid, "invalid token")
    }
    out := Claims{UserID: sc.Subject, Role: role, ExpiresAt: sc.ExpiresAt.Time}
    if sc.IssuedAt != nil {
        out.IssuedAt = sc.IssuedAt.Time
    }
    return out, nil
}

func classify(err error) error {
    switch {
    case errors.Is(err, jwt.ErrTokenExpired):
        return apperr.Unauthenticated(apperr.CodeTokenExpired, "token has expired")
    case errors.Is(err, jwt.ErrTokenNotValidYet):
        return apperr.Unauthenticated(apperr.CodeTokenNotActive, "token not active")
    case errors.Is(err, jwt.ErrTokenMalformed),
        errors.Is(err, jwt.ErrTokenSignatureInvalid),
        errors.Is(err, jwt.ErrTokenUnverifiable),
        errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
        return apperr.Unauthenticated(apperr.CodeTokenInvalid, "invalid token")
    }
    return apperr.Unauthenticated("", "token verification failed")
}
