package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/omniquote-labs/omniquote/types"
)

// Default provider endpoints
const (
	DefaultOpenOceanURL = "https://open-api.openocean.finance"
	DefaultLiFiURL      = "https://li.quest"
	DefaultSquidURL     = "https://api.squidrouter.com"
)

// ProviderConfig controls which quote providers are constructed at startup
// and where their external APIs live.
type ProviderConfig struct {
	Enabled      []string `json:"enabled"`
	OpenOceanURL string   `json:"openocean_url"`
	LiFiURL      string   `json:"lifi_url"`
	SquidURL     string   `json:"squid_url"`
}

var knownProviders = map[string]struct{}{
	string(types.ProviderUniswap):   {},
	string(types.ProviderOpenOcean): {},
	string(types.ProviderLiFi):      {},
	string(types.ProviderSquid):     {},
}

func (pc ProviderConfig) Validate() error {
	if len(pc.Enabled) == 0 {
		return types.NewValidationError("PROVIDERS", "at least one provider must be enabled")
	}
	for _, name := range pc.Enabled {
		if _, ok := knownProviders[name]; !ok {
			return types.NewInvalidValueError("PROVIDERS", name, "unknown provider type")
		}
	}
	for field, raw := range map[string]string{
		"OPENOCEAN_URL": pc.OpenOceanURL,
		"LIFI_URL":      pc.LiFiURL,
		"SQUID_URL":     pc.SquidURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			return types.NewInvalidValueError(field, raw, fmt.Sprintf("invalid URL: %v", err))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return types.NewInvalidValueError(field, raw, fmt.Sprintf("must use http or https scheme, got: %s", u.Scheme))
		}
	}
	return nil
}

// IsEnabled reports whether the given provider type is switched on.
func (pc ProviderConfig) IsEnabled(t types.ProviderType) bool {
	for _, name := range pc.Enabled {
		if name == string(t) {
			return true
		}
	}
	return false
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
