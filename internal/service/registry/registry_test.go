package registry

import (
	"testing"
	"time"

	"ForexPulse/internal/domain/models"
	"ForexPulse/pkg/config"
)

func TestFromConfigDefaults(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	r := FromConfig(cfg)

	news := r.Sources(models.KindNews)
	if len(news) != 4 || news[0].ID != "fxstreet" || news[3].ID != "babypips" {
		t.Fatalf("unexpected news order %+v", news)
	}
	if news[0].MaxItems != 8 {
		t.Fatalf("max items = %d, want 8", news[0].MaxItems)
	}

	quotes := r.Sources(models.KindQuote)
	if len(quotes) != 3 {
		t.Fatalf("quotes = %d", len(quotes))
	}
	want := "https://query1.finance.yahoo.com/v8/finance/chart/EURUSD=X?range=30d&interval=1h"
	if quotes[0].Endpoint != want {
		t.Fatalf("endpoint = %s", quotes[0].Endpoint)
	}
	if quotes[0].Parser != models.ParserYahooChart || quotes[0].Timeout != 10*time.Second {
		t.Fatalf("unexpected quote source %+v", quotes[0])
	}
	if got := r.Symbols(); len(got) != 3 || got[0] != "EURUSD" || got[2] != "BTCUSD" {
		t.Fatalf("symbols = %v", got)
	}
}

func TestDisabledSourcesAreDropped(t *testing.T) {
	r := New(
		models.Source{ID: "a", Kind: models.KindNews, Enabled: true},
		models.Source{ID: "b", Kind: models.KindNews, Enabled: false},
	)
	if got := r.Sources(models.KindNews); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("sources = %+v", got)
	}
	if _, ok := r.Lookup("b"); ok {
		t.Fatalf("disabled source should not be found")
	}
}

func TestSourcesReturnsCopy(t *testing.T) {
	r := New(models.Source{ID: "a", Kind: models.KindNews, Enabled: true})
	got := r.Sources(models.KindNews)
	got[0].ID = "mutated"
	if s, _ := r.Lookup("a"); s.ID != "a" {
		t.Fatalf("registry mutated through returned slice")
	}
}
