package document

import (
	"context"
	"errors"
	"time"
)

// ErrGeneratorUnavailable is returned when no generator is configured.
var ErrGeneratorUnavailable = errors.New("document: generator unavailable")

// Handle identifies a generated proposal document.
type Handle struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Request is what a generator receives: the wire form of the proposal and its priced summary,
// both already converted to decoded-JSON shape for placeholder lookup.
type Request struct {
	ProposalName string
	Form         any
	Summary      any
	Mappings     map[string]string
}

// Generator turns a proposal into a hosted document.
type Generator interface {
	Generate(ctx context.Context, req Request) (Handle, error)
}
