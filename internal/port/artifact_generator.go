package port

import "context"

type ArtifactGenerator interface {
	// Generate produces a scannable payment artifact reference for the
	// amount. Blocks until the artifact is ready or ctx is done.
	Generate(ctx context.Context, amount int64) (string, error)
}
