package document

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/proposalhero/internal/mapping"
)

// Stub logs the substitutions a real generator would make and returns a synthesized URL.
// No document is produced.
type Stub struct {
	BaseURL string
	Logger  zerolog.Logger
	Slides  []SlideTemplate
	Now     func() time.Time
}

var _ Generator = (*Stub)(nil)

// Generate implements Generator.
func (s *Stub) Generate(ctx context.Context, req Request) (Handle, error) {
	if s == nil {
		return Handle{}, ErrGeneratorUnavailable
	}
	if err := ctx.Err(); err != nil {
		return Handle{}, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	slides := s.Slides
	if slides == nil {
		slides = Slides
	}

	source := map[string]any{"form": req.Form, "summary": req.Summary}
	id := uuid.NewString()
	log := s.Logger.With().Str("document_id", id).Str("proposal", req.ProposalName).Logger()

	for _, slide := range slides {
		if slide.Optional != "" {
			flag, ok := mapping.Lookup(req.Form, slide.Optional)
			if on, isBool := flag.(bool); !ok || !isBool || !on {
				log.Debug().Str("slide", slide.ID).Msg("slide skipped")
				continue
			}
		}
		for _, ph := range slide.Placeholders {
			logSubstitution(log, slide.ID, ph.Variable, ph.FieldPath, source)
		}
	}
	for variable, path := range req.Mappings {
		logSubstitution(log, "mapping", variable, path, source)
	}

	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = "https://docs.example.invalid/proposals"
	}
	handle := Handle{ID: id, URL: base + "/" + id, CreatedAt: now().UTC()}
	log.Info().Str("url", handle.URL).Msg("proposal document stubbed")
	return handle, nil
}

func logSubstitution(log zerolog.Logger, slide, variable, path string, source any) {
	value, ok := mapping.Lookup(source, path)
	if !ok {
		value, ok = mapping.Lookup(source, "form."+path)
	}
	event := log.Info()
	if !ok {
		event = log.Warn()
	}
	event.Str("slide", slide).
		Str("variable", variable).
		Str("field_path", path).
		Interface("value", value).
		Bool("resolved", ok).
		Msg("template_substitution")
}
