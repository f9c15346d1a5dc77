package overlay

import (
	"github.com/verdantio/plotproof/internal/config"
)

// DefaultChains builds the standard three-step chain for every known layer:
// primary vector endpoint, coarse secondary endpoint, bundled static sample.
// Endpoints left empty in config drop that step from the chain.
func DefaultChains(cfg config.OverlayConfig) map[string][]Strategy {
	chains := make(map[string][]Strategy, len(Layers()))
	for _, layer := range Layers() {
		var chain []Strategy
		if cfg.PrimaryBaseURL != "" {
			chain = append(chain, NewHTTPStrategy(SourcePrimary, cfg.PrimaryBaseURL, cfg.RequestTimeout))
		}
		if cfg.SecondaryBaseURL != "" {
			chain = append(chain, NewHTTPStrategy(SourceSecondary, cfg.SecondaryBaseURL, cfg.RequestTimeout))
		}
		chain = append(chain, NewStaticStrategy())
		chains[layer] = chain
	}
	return chains
}
