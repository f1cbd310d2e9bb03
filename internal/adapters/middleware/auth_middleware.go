package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// cacheEntry stores cached JWT claims keyed by JTI (JWT ID)
type cacheEntry struct {
	claims jwt.MapClaims
	exp    int64
}

// AuthMiddleware validates JWT tokens issued by an external identity service.
// The public key is optional: the lifeclock service is recreational and runs
// in anonymous mode when no key is configured, in which case RequireAuth is a
// pass-through. Verified claims are cached by JTI to keep the hot path cheap.
type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	// in-memory cache keyed by JTI (JWT ID) for fast lookups
	cache sync.Map
	// background janitor for cache cleanup
	janitorStop chan bool
}

const CacheCleanupInterval = 10 * time.Minute

// NewAuthMiddleware creates a new JWT authentication middleware.
// publicKey may be nil to disable authentication entirely.
func NewAuthMiddleware(publicKey *rsa.PublicKey) *AuthMiddleware {
	m := &AuthMiddleware{
		publicKey:   publicKey,
		janitorStop: make(chan bool),
	}

	if publicKey != nil {
		go m.startJanitor(CacheCleanupInterval)
	}

	return m
}

// Enabled reports whether token validation is active
func (m *AuthMiddleware) Enabled() bool {
	return m.publicKey != nil
}

// Context keys for storing user information
type contextKey string

const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "token"
)

// GetClaimsFromCacheOrParse extracts claims from cache or parses the token.
// Uses JTI (JWT ID) for cache keying instead of the full token string.
// Public so the WebSocket handler can validate query-string tokens too.
func (m *AuthMiddleware) GetClaimsFromCacheOrParse(tokenString string) (jwt.MapClaims, string, error) {
	if m.publicKey == nil {
		return nil, "", errors.New("authentication disabled")
	}

	// Peek at the JTI without verifying the signature yet
	parser := new(jwt.Parser)
	unverifiedToken, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil, "", err
	}

	claims, ok := unverifiedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		// Fallback key when the issuer omits JTI
		sub, _ := claims["sub"].(string)
		jti = fmt.Sprintf("%s-%s", tokenString[:min(20, len(tokenString))], sub)
	}

	var exp int64
	if expFloat, ok := claims["exp"].(float64); ok {
		exp = int64(expFloat)
	} else if expInt, ok := claims["exp"].(int64); ok {
		exp = expInt
	} else {
		return nil, "", errors.New("missing expiration claim")
	}

	// Immediate expiry check (fastest fail path)
	if time.Now().Unix() > exp {
		return nil, "", errors.New("token expired")
	}

	// Cache lookup keyed by JTI
	if entry, ok := m.cache.Load(jti); ok {
		cached := entry.(cacheEntry)
		if time.Now().Unix() < cached.exp {
			return cached.claims, jti, nil
		}
		m.cache.Delete(jti)
	}

	// Full RSA validation (cold path - only on cache miss)
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, "", err
	}
	if !token.Valid {
		return nil, "", jwt.ErrSignatureInvalid
	}

	verifiedClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, "", errors.New("invalid token claims")
	}

	m.cache.Store(jti, cacheEntry{claims: verifiedClaims, exp: exp})

	return verifiedClaims, jti, nil
}

// RequireAuth validates the JWT from the Authorization header and adds the
// user ID to the request context. Pass-through in anonymous mode.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.publicKey == nil {
			next(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Printf("Missing Authorization header")
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Printf("Invalid Authorization header format")
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenString = parts[1]
		}

		claims, _, err := m.GetClaimsFromCacheOrParse(tokenString)
		if err != nil {
			log.Printf("Token validation failed: %v", err)
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		userID, ok := claims["sub"].(string)
		if !ok || userID == "" {
			log.Printf("Missing or invalid 'sub' claim")
			http.Error(w, "invalid token: missing user ID", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, TokenKey, tokenString)

		next(w, r.WithContext(ctx))
	}
}

// ValidateToken validates a raw token string (used for WebSocket upgrades
// where the token arrives via query string). Returns the user ID.
func (m *AuthMiddleware) ValidateToken(tokenString string) (string, error) {
	claims, _, err := m.GetClaimsFromCacheOrParse(tokenString)
	if err != nil {
		return "", err
	}
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", errors.New("missing or invalid user ID claim")
	}
	return userID, nil
}

// startJanitor periodically cleans up expired cache entries
func (m *AuthMiddleware) startJanitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now().Unix()
			deleted := 0
			m.cache.Range(func(key, value interface{}) bool {
				if entry, ok := value.(cacheEntry); ok && now >= entry.exp {
					m.cache.Delete(key)
					deleted++
				}
				return true
			})
			if deleted > 0 {
				log.Printf("Token cache janitor: purged %d expired entries", deleted)
			}
		case <-m.janitorStop:
			return
		}
	}
}

// Stop stops the background janitor (for graceful shutdown)
func (m *AuthMiddleware) Stop() {
	close(m.janitorStop)
}

// GetUserID extracts the user ID from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetToken extracts the token string from the request context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// min returns the minimum of two integers
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
