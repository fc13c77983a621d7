package weather

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "with key", cfg: Config{APIKey: "abc123"}},
		{name: "custom endpoint", cfg: Config{APIKey: "abc123", Endpoint: "http://localhost:9000/current.json"}},
		{name: "missing API key", cfg: Config{Endpoint: DefaultEndpoint}, wantErr: ErrMissingAPIKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
