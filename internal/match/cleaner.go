package match

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizedName is the output of the payee name cleaner: the canonical
// display name plus any extracted store/transaction identifier fragment.
type NormalizedName struct {
	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
}

// transactionPrefixes are leading tokens banks prepend to payee strings.
// Matched case-insensitively, one token at a time.
var transactionPrefixes = map[string]bool{
	"DEBIT": true, "CREDIT": true, "POS": true, "ATM": true,
	"CHECK": true, "CHECKCARD": true, "CHKCARD": true, "ACH": true,
	"PYMT": true, "PMT": true, "PAYMENT": true, "PURCHASE": true,
	"WITHDRAWAL": true, "DEPOSIT": true, "EFT": true, "WEB": true,
	"RECURRING": true, "TST": true, "SQ": true, "VISA": true,
	"MASTERCARD": true, "DBT": true, "CRD": true,
}

var (
	paypalPattern      = regexp.MustCompile(`(?i)^paypal\s*\*\s*(.+)$`)
	marketplacePattern = regexp.MustCompile(`(?i)^(.*\S)\s+(?:mktpl|marketplace)\s*\*\s*(\S+)\s*$`)
	trailingTokenChars = regexp.MustCompile(`^[A-Za-z0-9*#-]+$`)
	poundStorePattern  = regexp.MustCompile(`^#\d+$`)
	allDigitsPattern   = regexp.MustCompile(`^\d+$`)

	longDigitRun = regexp.MustCompile(`\d{10,}`)
	maskedCard   = regexp.MustCompile(`\*{4}\d{4}`)
	slashDate    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	isoDate      = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	corpSuffix   = regexp.MustCompile(`(?i)[,\s]+(inc|llc|ltd|corp|co|company)\.?\s*$`)
)

// minorWords stay lower-case in title-cased names unless they lead.
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"but": true, "by": true, "for": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
}

// CleanPayeeName strips transactional noise from a raw bank payee string
// and returns a canonical display name. Idempotent: cleaning an already
// clean name yields the same name.
func CleanPayeeName(raw string) string {
	return NormalizePayeeName(raw).Name
}

// NormalizePayeeName runs the full cleaning pipeline and additionally
// returns any extracted store/transaction identifier as Details.
func NormalizePayeeName(raw string) NormalizedName {
	s := collapseSpace(raw)
	if s == "" {
		return NormalizedName{}
	}

	s = stripTransactionPrefixes(s)

	// "PAYPAL * <merchant>" keeps the merchant identity so distinct real
	// merchants do not collapse into a single Paypal payee.
	if m := paypalPattern.FindStringSubmatch(s); m != nil {
		merchant := finishName(m[1])
		if merchant == "" {
			return NormalizedName{Name: "Paypal"}
		}
		return NormalizedName{Name: "Paypal - " + merchant}
	}

	// Marketplace-style suffix: NAME MKTPL*CODE keeps the base name and
	// moves the trailing code into details.
	if m := marketplacePattern.FindStringSubmatch(s); m != nil {
		return NormalizedName{Name: finishName(m[1]), Details: m[2]}
	}

	// Long trailing alphanumeric token (transaction/store identifier).
	if rest, tok, ok := splitTrailingToken(s); ok {
		return NormalizedName{Name: finishName(rest), Details: tok}
	}

	name, details := splitStoreSuffix(s)
	return NormalizedName{Name: finishName(name), Details: collapseSpace(details)}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripTransactionPrefixes drops known transactional lead tokens, plus any
// bare separator tokens they leave behind. Always keeps the last token.
func stripTransactionPrefixes(s string) string {
	tokens := strings.Fields(s)
	for len(tokens) > 1 {
		t := strings.Trim(strings.ToUpper(tokens[0]), "*-:.")
		if t != "" && !transactionPrefixes[t] {
			break
		}
		tokens = tokens[1:]
	}
	return strings.Join(tokens, " ")
}

// splitTrailingToken detects a long trailing identifier token: at least 8
// characters, alphanumeric with optional * # -, containing a digit or *.
func splitTrailingToken(s string) (rest, token string, ok bool) {
	idx := strings.LastIndexByte(s, ' ')
	if idx <= 0 {
		return "", "", false
	}
	tok := s[idx+1:]
	if len(tok) < 8 || !trailingTokenChars.MatchString(tok) {
		return "", "", false
	}
	if !strings.ContainsAny(tok, "0123456789*") {
		return "", "", false
	}
	return s[:idx], tok, true
}

// splitStoreSuffix scans tokens left to right to find where the merchant
// name ends and a store/location suffix begins.
func splitStoreSuffix(s string) (name, details string) {
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		upper := strings.ToUpper(tok)

		// "#1234" ends the name at the prior token.
		if i > 0 && poundStorePattern.MatchString(tok) {
			return join(tokens[:i]), join(tokens[i:])
		}

		// "STORE 42" or "STORE #42" ends the name at the prior token.
		if i > 0 && i+1 < len(tokens) &&
			(upper == "STORE" || upper == "STORES") &&
			(allDigitsPattern.MatchString(tokens[i+1]) ||
				poundStorePattern.MatchString(tokens[i+1])) {
			return join(tokens[:i]), join(tokens[i:])
		}

		// Trailing digit token preceded by an all-caps state/region token
		// ends the name two tokens back: "STARBUCKS SEATTLE WA 0457".
		if i == len(tokens)-1 && i >= 2 &&
			allDigitsPattern.MatchString(tok) &&
			isAllCapsWord(tokens[i-1], 2) {
			return join(tokens[:i-1]), join(tokens[i-1:])
		}

		// Two consecutive short all-caps tokens followed by a digit token
		// end the name one token back.
		if i >= 1 && i+2 < len(tokens) &&
			isShortCaps(tokens[i]) && isShortCaps(tokens[i+1]) &&
			allDigitsPattern.MatchString(tokens[i+2]) {
			return join(tokens[:i+1]), join(tokens[i+1:])
		}
	}
	return s, ""
}

func join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// isAllCapsWord reports whether tok is all upper-case letters of at least
// minLen characters.
func isAllCapsWord(tok string, minLen int) bool {
	if len(tok) < minLen {
		return false
	}
	for _, r := range tok {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// isShortCaps reports whether tok is a 2-3 letter all-caps token.
func isShortCaps(tok string) bool {
	return len(tok) <= 3 && isAllCapsWord(tok, 2)
}

// finishName applies the noise removal and formatting steps shared by
// every pipeline branch.
func finishName(s string) string {
	s = longDigitRun.ReplaceAllString(s, " ")
	s = maskedCard.ReplaceAllString(s, " ")
	s = slashDate.ReplaceAllString(s, " ")
	s = isoDate.ReplaceAllString(s, " ")
	s = corpSuffix.ReplaceAllString(s, "")
	s = collapseSpace(s)
	s = strings.Trim(s, " -–.,*#:;/")
	return smartCase(s)
}

// smartCase converts names that arrive entirely upper or lower case to
// title case; mixed-case names are assumed intentional and kept.
func smartCase(s string) string {
	if !strings.ContainsFunc(s, unicode.IsLetter) {
		return s
	}
	if s != strings.ToUpper(s) && s != strings.ToLower(s) {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && minorWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = titleWord(lower)
	}
	return strings.Join(words, " ")
}

// titleWord capitalizes the first letter of a lower-cased word and each
// segment after a hyphen. Segments after an apostrophe are capitalized
// only when longer than one letter, so "o'reilly" becomes "O'Reilly" but
// "mcdonald's" keeps its possessive "s" lower.
func titleWord(w string) string {
	runes := []rune(w)
	capNext := true
	for i, r := range runes {
		switch {
		case capNext && unicode.IsLetter(r):
			runes[i] = unicode.ToUpper(r)
			capNext = false
		case r == '-':
			capNext = true
		case r == '\'':
			if len(runes)-i-1 > 1 {
				capNext = true
			}
		}
	}
	return string(runes)
}
