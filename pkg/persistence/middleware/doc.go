// Package middleware wraps a ports.TrialStore with privacy behavior: masking measured
// data whose keys look like personal information, and encrypting measured data at rest.
package middleware
