package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/proposalhero/internal/resilience"
)

// Guarded fails fast with ErrGeneratorUnavailable while the breaker around Next is open.
type Guarded struct {
	Next    Generator
	Breaker *resilience.Breaker
}

var _ Generator = Guarded{}

// Generate implements Generator.
func (g Guarded) Generate(ctx context.Context, req Request) (Handle, error) {
	if g.Next == nil {
		return Handle{}, ErrGeneratorUnavailable
	}
	if g.Breaker == nil {
		return g.Next.Generate(ctx, req)
	}
	var handle Handle
	err := g.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		handle, err = g.Next.Generate(ctx, req)
		return err
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return Handle{}, fmt.Errorf("%w: %w", ErrGeneratorUnavailable, err)
	}
	return handle, err
}
