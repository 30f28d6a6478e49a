// Package config assembles and validates runtime configuration for the
// tabvault binaries.
//
// Values are merged from three sources; a field set by an earlier source
// wins, later sources only fill what is still empty:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file (path given via CONFIG, -c or -config)
//
// [GetStructuredConfig] yields the full server view, [GetClientConfig] the
// narrowed client view.
package config
