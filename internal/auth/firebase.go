package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GoogleJWKSURL publishes the keys that sign Firebase ID tokens.
const GoogleJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

const (
	defaultKeyTTL = time.Hour
	// An unknown kid refetches the key set at most this often.
	defaultMinRefresh = time.Minute
)

var _ Verifier = (*FirebaseVerifier)(nil)

// FirebaseVerifier verifies Firebase ID tokens: RS256 signatures checked
// against Google's JWKS, issuer https://securetoken.google.com/<project>,
// audience <project>, and a required expiry.
type FirebaseVerifier struct {
	projectID string
	issuer    string
	keys      *keySet
}

// FirebaseOption customises a FirebaseVerifier.
type FirebaseOption func(*FirebaseVerifier)

// WithJWKSURL points the verifier at another key endpoint.
func WithJWKSURL(url string) FirebaseOption {
	return func(v *FirebaseVerifier) { v.keys.url = url }
}

// WithHTTPClient sets the client used to fetch keys.
func WithHTTPClient(c *http.Client) FirebaseOption {
	return func(v *FirebaseVerifier) { v.keys.client = c }
}

func NewFirebaseVerifier(projectID string, opts ...FirebaseOption) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("auth: firebase project id is required")
	}
	v := &FirebaseVerifier{
		projectID: projectID,
		issuer:    "https://securetoken.google.com/" + projectID,
		keys: &keySet{
			url:        GoogleJWKSURL,
			client:     &http.Client{Timeout: 10 * time.Second},
			ttl:        defaultKeyTTL,
			minRefresh: defaultMinRefresh,
			keys:       make(map[string]*rsa.PublicKey),
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

type firebaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *FirebaseVerifier) Verify(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&firebaseClaims{},
		func(token *jwt.Token) (any, error) {
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("auth: token has no kid header")
			}
			return v.keys.get(ctx, kid)
		},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("auth: token expired")
		}
		return nil, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*firebaseClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("auth: token has no subject")
	}
	return &Claims{Email: c.Email, UID: c.Subject}, nil
}

// keySet caches RSA public keys by kid. An expired cache triggers a refetch
// of the whole set; so does an unknown kid, but no more than once per
// minRefresh, so tokens with made-up kids cannot drive outbound traffic.
type keySet struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration

	fetchMu sync.Mutex // one fetch at a time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	expiresAt   time.Time
	lastFetched time.Time
}

type jwks struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (ks *keySet) get(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok, fetch := ks.lookup(kid); !fetch {
		if ok {
			return key, nil
		}
		return nil, fmt.Errorf("auth: no public key with kid %s", kid)
	}

	ks.fetchMu.Lock()
	defer ks.fetchMu.Unlock()

	// Another request may have refetched while this one waited.
	if _, _, fetch := ks.lookup(kid); fetch {
		if err := ks.refresh(ctx); err != nil {
			return nil, err
		}
	}

	ks.mu.RLock()
	defer ks.mu.RUnlock()
	if key, ok := ks.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("auth: no public key with kid %s", kid)
}

// lookup reports the cached key for kid and whether a refetch is due: the
// set has expired, or kid is unknown and the last fetch is older than
// minRefresh.
func (ks *keySet) lookup(kid string) (key *rsa.PublicKey, ok, fetch bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	now := time.Now()
	key, ok = ks.keys[kid]
	if !now.Before(ks.expiresAt) {
		return key, ok, true
	}
	if !ok && now.Sub(ks.lastFetched) >= ks.minRefresh {
		return nil, false, true
	}
	return key, ok, false
}

func (ks *keySet) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return fmt.Errorf("auth: building JWKS request: %w", err)
	}
	resp, err := ks.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: fetching JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("auth: decoding JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	ks.mu.Lock()
	ks.keys = keys
	ks.lastFetched = time.Now()
	ks.expiresAt = ks.lastFetched.Add(ks.ttl)
	ks.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nStr, eStr string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nStr)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eStr)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
