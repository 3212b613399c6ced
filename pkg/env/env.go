// Package env reads process environment variables with fallbacks. It exists
// for the few lookups that happen before config.Load has run, like picking
// the logger's initial level.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
