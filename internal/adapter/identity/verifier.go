package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Temutjin2k/ride-dispatch/config"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves a bearer token to an Identity. The account service is the
// source of truth; when cfg.JWTSecret is set the token is checked locally
// instead, which keeps the API usable when the account service is down.
type Verifier struct {
	cfg    config.IdentityConfig
	client *http.Client

	l logger.Logger
}

func NewVerifier(cfg config.IdentityConfig, log logger.Logger) *Verifier {
	return &Verifier{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		l:      log,
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Verify validates the token and returns the caller's identity.
// Returns types.ErrUnauthorized for a rejected token and
// types.ErrUpstreamUnavailable when the account service cannot answer.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.Identity, error) {
	ctx = wrap.WithAction(ctx, "identity_verify")

	if token == "" {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	if v.cfg.JWTSecret != "" {
		return v.verifyLocal(ctx, token)
	}
	return v.verifyRemote(ctx, token)
}

func (v *Verifier) verifyRemote(ctx context.Context, token string) (*models.Identity, error) {
	const op = "Verifier.verifyRemote"

	body, err := json.Marshal(verifyRequest{Token: token})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: marshal request: %w", op, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.VerifyURL, bytes.NewReader(body))
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: build request: %w", op, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionIdentityVerifyFailed)
		v.l.Warn(ctx, "account service unreachable", "err", err.Error())
		return nil, wrap.Error(ctx, fmt.Errorf("%s: %w: %w", op, types.ErrUpstreamUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode >= http.StatusInternalServerError:
		ctx = wrap.WithAction(ctx, types.ActionIdentityVerifyFailed)
		return nil, wrap.Error(ctx, fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, types.ErrUpstreamUnavailable))
	default:
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	var payload verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%s: decode response: %w: %w", op, types.ErrUpstreamUnavailable, err))
	}

	role, ok := types.NormalizeRole(payload.Role)
	if !ok {
		v.l.Warn(ctx, "account service returned unknown role", "role", payload.Role)
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	return &models.Identity{
		ID:    payload.UserID,
		Email: payload.Email,
		Role:  role,
	}, nil
}

// verifyLocal checks the HS256 signature and expiry without a network hop.
func (v *Verifier) verifyLocal(ctx context.Context, token string) (*models.Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, types.ErrUnauthorized
		}
		return []byte(v.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	userID, ok := claimInt64(mc["user_id"])
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'user_id' in token claims: %w", types.ErrUnauthorized))
	}

	rawRole, _ := mc["role"].(string)
	role, ok := types.NormalizeRole(rawRole)
	if !ok {
		return nil, wrap.Error(ctx, fmt.Errorf("invalid or missing 'role' in token claims: %w", types.ErrUnauthorized))
	}

	email, _ := mc["email"].(string)

	return &models.Identity{
		ID:    userID,
		Email: email,
		Role:  role,
	}, nil
}

// claimInt64 tolerates both numeric and string-encoded user ids, since the
// account service has issued both over time.
func claimInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
