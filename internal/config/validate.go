// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for values that can never work. It is
// deliberately strict about TLS material: a missing or unreadable
// credential file would otherwise send the connect loop into an infinite
// retry against a guaranteed failure, so it is rejected here instead.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("field %s failed %q validation", f.Namespace(), f.Tag())
		}
		return err
	}

	if _, err := c.Broker.TLS.MinTLSVersion(); err != nil {
		return err
	}

	if c.Broker.TLS.Enabled {
		if err := c.validateTLSFiles(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateTLSFiles() error {
	t := c.Broker.TLS
	files := []struct {
		name, path string
	}{
		{"broker.tls.ca_file", t.CAFile},
		{"broker.tls.cert_file", t.CertFile},
		{"broker.tls.key_file", t.KeyFile},
	}
	for _, f := range files {
		if f.path == "" {
			return fmt.Errorf("%s is required when TLS is enabled", f.name)
		}
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}
