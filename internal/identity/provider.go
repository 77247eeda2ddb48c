package identity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// ErrSessionNotFound indicates the token does not map to a live session.
var ErrSessionNotFound = errors.New("identity: session not found")

// Provider resolves bearer tokens into principals via Redis. Sessions are
// written by the external identity layer; the portal trusts their contents
// as given.
type Provider struct {
	client *redis.Client
	ttl    time.Duration
}

type sessionPayload struct {
	UserID          int64    `json:"user_id"`
	CompanyID       int64    `json:"company_id"`
	Role            string   `json:"role"`
	AssignedSiteIDs []string `json:"assigned_site_ids"`
}

// NewProvider constructs a Provider.
func NewProvider(client *redis.Client, ttl time.Duration) *Provider {
	return &Provider{client: client, ttl: ttl}
}

// Resolve loads the principal for a session token.
func (p *Provider) Resolve(ctx context.Context, token string) (*shared.Principal, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	data, err := p.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var payload sessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &shared.Principal{
		UserID:          payload.UserID,
		CompanyID:       payload.CompanyID,
		Role:            payload.Role,
		AssignedSiteIDs: payload.AssignedSiteIDs,
	}, nil
}

// Issue writes a session for the principal and returns its token. Used by
// seeding and tests; production tokens come from the identity layer.
func (p *Provider) Issue(ctx context.Context, principal shared.Principal) (string, error) {
	token := uuid.NewString()
	payload := sessionPayload{
		UserID:          principal.UserID,
		CompanyID:       principal.CompanyID,
		Role:            principal.Role,
		AssignedSiteIDs: principal.AssignedSiteIDs,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if err := p.client.Set(ctx, sessionKey(token), data, p.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func sessionKey(token string) string {
	return "identity:session:" + token
}
