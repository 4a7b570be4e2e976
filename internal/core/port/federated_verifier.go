package port

import (
	"context"
	"errors"
)

// ErrAssertionInvalid indicates the federated identity token could not be
// verified or did not carry the required claims.
var ErrAssertionInvalid = errors.New("federated assertion invalid")

// FederatedIdentity is the already-authenticated assertion returned by the
// external identity provider.
type FederatedIdentity struct {
	Email     string
	GivenName string
}

// FederatedVerifier validates an opaque federated ID token and returns the
// verified identity. The core treats the result as authenticated.
type FederatedVerifier interface {
	Verify(ctx context.Context, rawToken string) (*FederatedIdentity, error)
}
