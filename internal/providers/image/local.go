package image

import (
	"context"

	"promptpix/internal/domain"
	"promptpix/internal/infra"
	"promptpix/internal/render"
)

const (
	ProviderLocal = "local"
	LocalLabel    = "Student Demo Mode"
)

// LocalAdapter is the terminal fallback: it renders a placeholder in-process
// and only fails when no canvas can be produced.
type LocalAdapter struct {
	renderer *render.Renderer
	logger   *infra.Logger
}

func NewLocalAdapter(renderer *render.Renderer, logger *infra.Logger) *LocalAdapter {
	if renderer == nil {
		renderer = render.NewRenderer(render.Options{})
	}
	return &LocalAdapter{renderer: renderer, logger: loggerOrDiscard(logger)}
}

func (a *LocalAdapter) Name() string { return ProviderLocal }

func (a *LocalAdapter) Generate(ctx context.Context, req Request) ([]domain.ImageRecord, error) {
	res, err := a.renderer.Render(req.Prompt, req.Size.Width, req.Size.Height)
	if err != nil {
		return nil, domain.Classify(domain.KindUnknown, 0, ProviderLocal, "local rendering failed", err)
	}
	a.logger.Debug().
		Int("hue", res.Palette.Hue).
		Int("shapes", len(res.Shapes)).
		Int("bytes", len(res.PNG)).
		Msg("local: rendered placeholder")
	return single(req, res.DataURL(), LocalLabel), nil
}

var _ Adapter = (*LocalAdapter)(nil)
