package ports

import "context"

// IdentityVerifier turns a credential issued by the identity provider into
// the opaque user id it vouches for.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}
