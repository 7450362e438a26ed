// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and validates newsdesk configuration.
//
// # Key Types
//
//   - Config: Complete configuration
//   - APIConfig: Backend URL, logout path, timeouts, offline mode
//   - StorageConfig: Session persistence backend and encryption
//   - SessionConfig: Cross-process session watching
//   - LogConfig: Structured logging
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (NEWSDESK_*)
//   - $NEWSDESK_HOME/config.toml (default ~/.newsdesk/config.toml)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    var verrs config.ValidateErrors
//	    if errors.As(err, &verrs) {
//	        // report each field
//	    }
//	}
package config
