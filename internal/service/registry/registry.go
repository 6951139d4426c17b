package registry

import (
	"strings"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/config"
)

// Registry is the immutable list of sources per kind, in configuration order.
// Order matters: the merger resolves duplicates in favour of earlier sources.
type Registry struct {
	byKind map[models.Kind][]models.Source
}

// New builds a registry from explicit source lists. Disabled sources are dropped.
func New(sources ...models.Source) *Registry {
	r := &Registry{byKind: make(map[models.Kind][]models.Source)}
	for _, s := range sources {
		if !s.Enabled {
			continue
		}
		r.byKind[s.Kind] = append(r.byKind[s.Kind], s)
	}
	return r
}

// FromConfig expands the configured feeds and quote symbols into sources.
func FromConfig(cfg *config.Config) *Registry {
	var all []models.Source
	for _, sc := range cfg.News.Sources {
		s := fromSourceConfig(models.KindNews, sc)
		if s.MaxItems == 0 {
			s.MaxItems = cfg.News.MaxItems
		}
		all = append(all, s)
	}
	for _, sc := range cfg.Calendar.Sources {
		all = append(all, fromSourceConfig(models.KindCalendar, sc))
	}
	for _, sym := range cfg.Quotes.Symbols {
		all = append(all, models.Source{
			ID:       "yahoo-" + strings.ToLower(sym.Symbol),
			Name:     "Yahoo " + sym.Symbol,
			Kind:     models.KindQuote,
			Endpoint: strings.ReplaceAll(cfg.Quotes.URL, "{ticker}", sym.Ticker),
			Parser:   models.ParserYahooChart,
			Symbol:   sym.Symbol,
			Timeout:  cfg.Fetch.Timeout,
			Enabled:  true,
		})
	}
	return New(all...)
}

func fromSourceConfig(kind models.Kind, sc config.SourceConfig) models.Source {
	return models.Source{
		ID:       sc.ID,
		Name:     sc.Name,
		Kind:     kind,
		Endpoint: sc.URL,
		Parser:   sc.Parser,
		Timeout:  sc.Timeout,
		MaxItems: sc.MaxItems,
		Enabled:  !sc.Disabled,
	}
}

// Sources returns a copy of the enabled sources for kind.
func (r *Registry) Sources(kind models.Kind) []models.Source {
	src := r.byKind[kind]
	out := make([]models.Source, len(src))
	copy(out, src)
	return out
}

// Symbols returns the quote symbols in registry order.
func (r *Registry) Symbols() []string {
	src := r.byKind[models.KindQuote]
	out := make([]string, 0, len(src))
	for _, s := range src {
		out = append(out, s.Symbol)
	}
	return out
}

// Lookup finds a source by id.
func (r *Registry) Lookup(id string) (models.Source, bool) {
	for _, list := range r.byKind {
		for _, s := range list {
			if s.ID == id {
				return s, true
			}
		}
	}
	return models.Source{}, false
}
