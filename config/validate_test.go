package config_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/adamwoolhether/asynchttp/config"
)

func TestConfig_Validate(t *testing.T) {
	testCases := map[string]struct {
		mutate    func(c *config.Config)
		expFields []string
	}{
		"defaults": {
			mutate: func(c *config.Config) {},
		},
		"compressionLevelTooHigh": {
			mutate:    func(c *config.Config) { c.SetRequestCompressionLevel(10) },
			expFields: []string{"requestCompressionLevel"},
		},
		"compressionLevelTooLow": {
			mutate:    func(c *config.Config) { c.SetRequestCompressionLevel(-2) },
			expFields: []string{"requestCompressionLevel"},
		},
		"negativeRedirects": {
			mutate:    func(c *config.Config) { c.SetMaxRedirects(-1) },
			expFields: []string{"maxRedirects"},
		},
		"zeroThreadMultiplier": {
			mutate:    func(c *config.Config) { c.SetIOThreadMultiplier(0) },
			expFields: []string{"ioThreadMultiplier"},
		},
		"multiple": {
			mutate: func(c *config.Config) {
				c.SetMaxTotalConnections(-5).SetMaxRequestRetry(-1)
			},
			expFields: []string{"maxTotalConnections", "maxRequestRetry"},
		},
		"realmWithoutPrincipal": {
			mutate:    func(c *config.Config) { c.SetRealm(&config.Realm{Scheme: config.AuthBasic, Password: "pw"}) },
			expFields: []string{"principal"},
		},
		"realmBadScheme": {
			mutate:    func(c *config.Config) { c.SetRealm(&config.Realm{Scheme: "MAGIC"}) },
			expFields: []string{"scheme"},
		},
		"negativeTimeoutsAllowed": {
			mutate: func(c *config.Config) { c.SetRequestTimeout(-1).SetConnectionTimeout(-1) },
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			cfg := config.New()
			defer cfg.Close()
			tc.mutate(cfg)

			err := cfg.Validate()
			if len(tc.expFields) == 0 {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}

			var fe config.FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldErrors, got %T: %v", err, err)
			}

			got := fe.Fields()
			for _, f := range tc.expFields {
				if !slices.Contains(got, f) {
					t.Errorf("expected %s among invalid fields %v", f, got)
				}
			}
			for _, f := range fe {
				if f.Err == "" {
					t.Errorf("expected a message for %s", f.Field)
				}
			}
		})
	}
}
