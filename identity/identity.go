// Package identity resolves tenant context and actor identity for the
// entity access layer.
//
// Credential validation and token exchange happen upstream; this package
// only extracts the already-resolved principal that the upstream authorizer
// stashes on the request, and represents it as a typed capability value.
package identity

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/events"
)

// ErrUnresolved is returned when no principal can be extracted from a request.
var ErrUnresolved = errors.New("identity: principal could not be resolved")

// Claims carries the short-lived store credentials issued for a request.
type Claims struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// Principal is the capability token gating every store operation.
type Principal struct {
	// TenantID is the isolation partition all of the principal's data lives in.
	TenantID string

	// UserID identifies the authenticated actor for audit stamping.
	UserID string

	// Claims are the store credentials; nil means the principal is unusable.
	Claims *Claims
}

// Authorized reports whether the principal carries resolved credentials.
func (p Principal) Authorized() bool {
	return p.Claims != nil && p.TenantID != ""
}

// Resolver produces a Principal from an inbound request.
type Resolver interface {
	Resolve(ctx context.Context, req events.APIGatewayProxyRequest) (Principal, error)
}

// AuthorizerResolver reads the principal from the API Gateway authorizer
// context.
type AuthorizerResolver struct{}

// Resolve implements Resolver.
func (AuthorizerResolver) Resolve(_ context.Context, req events.APIGatewayProxyRequest) (Principal, error) {
	auth := req.RequestContext.Authorizer
	if auth == nil {
		return Principal{}, ErrUnresolved
	}

	p := Principal{
		TenantID: stringField(auth, "tenantId"),
		UserID:   stringField(auth, "userId"),
	}
	claims := Claims{
		AccessKeyID:     stringField(auth, "accessKeyId"),
		SecretAccessKey: stringField(auth, "secretAccessKey"),
		SessionToken:    stringField(auth, "sessionToken"),
	}
	if p.TenantID == "" || claims.AccessKeyID == "" {
		return Principal{}, ErrUnresolved
	}

	p.Claims = &claims
	return p, nil
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
