// Package matcher implements the reconciliation matching engine.
//
// For each canonical transfer record the engine selects internal-record
// candidates sharing the transfer's ISIN and units exactly, scores each
// candidate's client name with an edit-distance similarity on [0,100],
// picks the best candidate (ties broken by internal input order), and
// classifies the pair:
//
//	Missing   no internal record shares ISIN and units
//	Mismatch  name below threshold, status not Transferred,
//	          or posted before the authorized date
//	Review    posted after the authorized date, or authorized date missing
//	OK        everything agrees, dates equal
//
// Name similarity dominates the precedence order: a below-threshold name
// is classified Mismatch even when every other field agrees, because it
// implies the bond may have reached the wrong beneficiary.
//
// The engine is deterministic: same inputs in the same order always
// produce the same classified result set.
package matcher

import (
	"time"

	"bond-transfer-reconciliation/pkg/errors"
)

// DefaultNameThreshold is the default minimum client-name similarity for a
// candidate to be considered the same beneficiary.
const DefaultNameThreshold = 95.0

// Config holds the tunable parameters of the matching engine. The name
// threshold is an explicit per-engine value so callers can tune
// sensitivity per run; it is deliberately not a package constant.
type Config struct {
	// NameThreshold is the minimum similarity score on [0,100] below
	// which the best candidate is classified as a name mismatch.
	NameThreshold float64 `json:"name_threshold"`

	// KBDateFrom/KBDateTo optionally restrict the internal-record set to
	// an authorized-date window before indexing. Both bounds are
	// inclusive. Records without an authorized date are excluded whenever
	// a bound is set.
	KBDateFrom *time.Time `json:"kb_date_from,omitempty"`
	KBDateTo   *time.Time `json:"kb_date_to,omitempty"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		NameThreshold: DefaultNameThreshold,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.NameThreshold < 0 || c.NameThreshold > 100 {
		return errors.ConfigurationError("matcher.name_threshold", c.NameThreshold, nil)
	}

	if c.KBDateFrom != nil && c.KBDateTo != nil && c.KBDateFrom.After(*c.KBDateTo) {
		return errors.ConfigurationError("matcher.kb_date_window",
			c.KBDateFrom.Format("2006-01-02")+" > "+c.KBDateTo.Format("2006-01-02"), nil)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
