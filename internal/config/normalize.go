// internal/config/normalize.go
package config

import "github.com/tamzrod/una-at/internal/status"

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Bus.Parity == "" {
		cfg.Bus.Parity = "N"
	}

	for ui := range cfg.Mirror.Units {
		u := &cfg.Mirror.Units[ui]

		// Skip units that did not opt in to a status block
		if u.StatusSlot == nil {
			continue
		}

		// device_name is ASCII (validated) and stored in a fixed slot range
		if len(u.DeviceName) > status.DeviceNameMaxChars {
			u.DeviceName = u.DeviceName[:status.DeviceNameMaxChars]
		}
		if u.DeviceName == "" {
			u.DeviceName = u.ID
			if len(u.DeviceName) > status.DeviceNameMaxChars {
				u.DeviceName = u.DeviceName[:status.DeviceNameMaxChars]
			}
		}
	}
}
