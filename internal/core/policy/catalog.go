package policy

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultLocale = "zh-CN"

//go:embed messages.yaml
var catalogYAML []byte

// Messages holds the fixed localized text for every error category.
// TooLong and RateLimitedWait carry a single %d verb.
type Messages struct {
	EmptyInput      string `yaml:"empty_input"`
	TooLong         string `yaml:"too_long"`
	RateLimited     string `yaml:"rate_limited"`
	RateLimitedWait string `yaml:"rate_limited_wait"`
	NetworkError    string `yaml:"network_error"`
	Timeout         string `yaml:"timeout"`
	ConfigError     string `yaml:"config_error"`
	Unknown         string `yaml:"unknown"`
}

func LoadMessages(locale string) (Messages, error) {
	catalog := map[string]Messages{}
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return Messages{}, fmt.Errorf("parse message catalog: %w", err)
	}

	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DefaultLocale
	}
	msgs, ok := catalog[locale]
	if !ok {
		return Messages{}, fmt.Errorf("unknown message locale %q (available: %s)", locale, strings.Join(locales(catalog), ", "))
	}
	if err := msgs.validate(); err != nil {
		return Messages{}, fmt.Errorf("locale %s: %w", locale, err)
	}
	return msgs, nil
}

func (m Messages) validate() error {
	fields := map[string]string{
		"empty_input":       m.EmptyInput,
		"too_long":          m.TooLong,
		"rate_limited":      m.RateLimited,
		"rate_limited_wait": m.RateLimitedWait,
		"network_error":     m.NetworkError,
		"timeout":           m.Timeout,
		"config_error":      m.ConfigError,
		"unknown":           m.Unknown,
	}
	for key, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("message %s is empty", key)
		}
	}
	return nil
}

func locales(catalog map[string]Messages) []string {
	out := make([]string, 0, len(catalog))
	for locale := range catalog {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}
