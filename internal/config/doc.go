// Package config loads runtime configuration for raddo.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or --config (see LoadJSON).
//  3. Command-line flags (see BindFlags), which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. Dates are free-form strings resolved by timex.ParseDate:
//
//	{
//	  "directory": "/data/radolan",
//	  "start": "2020-01-01",
//	  "end": "yesterday",
//	  "errors_allowed": 5,
//	  "retry_delay": "2s",
//	  "s3_bucket": "radolan-mirror"
//	}
package config
