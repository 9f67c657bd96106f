package providers

import (
	"errors"
	"testing"

	"github.com/seenimoa/newspulse/internal/config"
	"github.com/seenimoa/newspulse/internal/provider"
	"github.com/seenimoa/newspulse/pkg/models"
)

func TestRegisterAllToNoKeys(t *testing.T) {
	reg := provider.NewRegistry()
	cfg := &config.Config{}
	if err := RegisterAllTo(reg, cfg, nil); err != nil {
		t.Fatalf("RegisterAllTo: %v", err)
	}
	if n := len(reg.Names()); n != 0 {
		t.Errorf("registered %d providers without keys, want 0", n)
	}

	missing := Unconfigured(cfg)
	if len(missing) != 3 {
		t.Fatalf("Unconfigured: got %d, want 3", len(missing))
	}
	var cred *provider.ErrMissingCredential
	if !errors.As(missing[models.ProviderNewsAPI], &cred) {
		t.Errorf("newsapi: got %v, want *ErrMissingCredential", missing[models.ProviderNewsAPI])
	}
	for name, err := range missing {
		if !errors.Is(err, provider.ErrConfiguration) {
			t.Errorf("%s: %v should be a configuration error", name, err)
		}
	}
}

func TestRegisterAllToWithKeys(t *testing.T) {
	reg := provider.NewRegistry()
	cfg := &config.Config{}
	cfg.Providers.NewsAPI.APIKey = "n-key"
	cfg.Providers.GNews.APIKey = "g-key"
	cfg.Providers.GoogleNews.Enabled = true

	client := NewClient(config.HTTPConfig{TimeoutSec: 5}, nil)
	if err := RegisterAllTo(reg, cfg, client); err != nil {
		t.Fatalf("RegisterAllTo: %v", err)
	}
	names := reg.Names()
	want := []models.ProviderName{models.ProviderGNews, models.ProviderGoogleNews, models.ProviderNewsAPI}
	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
	if len(Unconfigured(cfg)) != 0 {
		t.Error("nothing should be unconfigured")
	}
}
