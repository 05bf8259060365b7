// Package demat extracts depository account identifiers from free-text
// transaction narrations and resolves them to client names via the demat
// master table.
//
// Two identifier conventions are recognized, tried in order:
//  1. NSDL: an alphanumeric token with the IN prefix. The narration is
//     upper-cased and stripped of spaces, and the token is taken from the
//     last IN occurrence.
//  2. CDSL: a 16-digit number. All non-digits are stripped and the last 16
//     digits are used when at least 16 remain.
//
// Extraction is pattern-exact; there is no fuzzy matching at this stage.
// Narration formats vary between report generations, so a narration that
// matches neither convention is a tolerated outcome, not an error.
package demat

import (
	"regexp"
	"strings"

	"bond-transfer-reconciliation/internal/models"
	"bond-transfer-reconciliation/pkg/logger"
)

var (
	nsdlToken = regexp.MustCompile(`^IN[0-9A-Z]+`)
	nonDigits = regexp.MustCompile(`\D`)
)

const cdslDigits = 16

// ExtractIdentifier scans a narration for a depository identifier. It
// returns the normalized identifier, the convention it follows, and false
// when neither recognizer matched.
func ExtractIdentifier(narration string) (string, models.DematType, bool) {
	if id, ok := extractNSDL(narration); ok {
		return id, models.DematNSDL, true
	}
	if id, ok := extractCDSL(narration); ok {
		return id, models.DematCDSL, true
	}
	return "", models.DematUnknown, false
}

// extractNSDL pulls an IN-prefixed token out of the narration, anchored at
// the last IN occurrence so that incidental "IN" substrings earlier in the
// text do not win over the identifier at the tail.
func extractNSDL(narration string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(narration))
	if s == "" {
		return "", false
	}

	s = strings.ReplaceAll(s, " ", "")
	start := strings.LastIndex(s, "IN")
	if start < 0 {
		return "", false
	}

	token := nsdlToken.FindString(s[start:])
	if token == "" {
		return "", false
	}
	return token, true
}

// extractCDSL pulls the last 16 digits out of the narration, ignoring any
// separators the report inserts.
func extractCDSL(narration string) (string, bool) {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(narration), "")
	if len(digits) < cdslDigits {
		return "", false
	}
	return digits[len(digits)-cdslDigits:], true
}

// NormalizeNSDLKey normalizes an NSDL identifier the same way extraction
// does, so master keys and extracted identifiers compare equal.
func NormalizeNSDLKey(s string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
}

// NormalizeCDSLKey normalizes a CDSL identifier to its last 16 digits.
// Returns "" when fewer than 16 digits are present.
func NormalizeCDSLKey(s string) string {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(s), "")
	if len(digits) < cdslDigits {
		return ""
	}
	return digits[len(digits)-cdslDigits:]
}

// Quality tags the outcome of a resolution attempt so that callers can
// tell an unresolved client name apart from a resolved empty one.
type Quality string

const (
	// QualityOK means the identifier was extracted and found in the master.
	QualityOK Quality = "OK"
	// QualityNoDematFound means no identifier pattern matched the narration.
	QualityNoDematFound Quality = "NO_DEMAT_FOUND"
	// QualityNotInMaster means an identifier was extracted but the master
	// has no mapping for it.
	QualityNotInMaster Quality = "NOT_IN_MASTER"
)

// Resolution is the outcome of resolving one narration.
type Resolution struct {
	Identifier string
	Type       models.DematType
	ClientName string
	Quality    Quality
}

// Resolved reports whether a client name was found.
func (r Resolution) Resolved() bool {
	return r.Quality == QualityOK
}

// MasterEntry is one row of the demat master: a client name keyed by its
// CDSL and/or NSDL identifiers.
type MasterEntry struct {
	ClientName string
	CDSL       string
	NSDL       string
}

// Resolver maps extracted depository identifiers to client names.
type Resolver struct {
	cdsl   map[string]string
	nsdl   map[string]string
	logger logger.Logger
}

// NewResolver builds a Resolver from demat master entries. Keys are
// normalized per convention; on duplicate keys the first entry wins, which
// keeps resolution deterministic for a given master order.
func NewResolver(entries []MasterEntry) *Resolver {
	r := &Resolver{
		cdsl:   make(map[string]string),
		nsdl:   make(map[string]string),
		logger: logger.GetGlobalLogger().WithComponent("demat_resolver"),
	}

	duplicates := 0
	for _, e := range entries {
		name := strings.TrimSpace(e.ClientName)

		if key := NormalizeCDSLKey(e.CDSL); key != "" {
			if _, exists := r.cdsl[key]; exists {
				duplicates++
			} else {
				r.cdsl[key] = name
			}
		}

		if key := NormalizeNSDLKey(e.NSDL); key != "" {
			if _, exists := r.nsdl[key]; exists {
				duplicates++
			} else {
				r.nsdl[key] = name
			}
		}
	}

	r.logger.WithFields(logger.Fields{
		"cdsl_keys":  len(r.cdsl),
		"nsdl_keys":  len(r.nsdl),
		"duplicates": duplicates,
	}).Debug("Built demat resolver")

	return r
}

// Resolve extracts an identifier from the narration and looks it up in the
// master. Every outcome is expressed in the Resolution, never as an error.
func (r *Resolver) Resolve(narration string) Resolution {
	id, dematType, found := ExtractIdentifier(narration)
	if !found {
		return Resolution{Quality: QualityNoDematFound}
	}

	var name string
	var ok bool
	switch dematType {
	case models.DematNSDL:
		name, ok = r.nsdl[id]
	case models.DematCDSL:
		name, ok = r.cdsl[id]
	}

	if !ok {
		return Resolution{Identifier: id, Type: dematType, Quality: QualityNotInMaster}
	}

	return Resolution{Identifier: id, Type: dematType, ClientName: name, Quality: QualityOK}
}

// Size returns the number of distinct identifier keys loaded.
func (r *Resolver) Size() int {
	return len(r.cdsl) + len(r.nsdl)
}
