package normalize

import (
	"regexp"
	"strings"
)

// Romanian document-field formats. Validators are used two ways: the
// tesseract provider uses the Find* helpers to guess fields out of raw text,
// and the normalizer warns when a populated value fails its checksum.

var (
	reCUI    = regexp.MustCompile(`\b(?:RO\s?)?(\d{2,10})\b`)
	reCUITag = regexp.MustCompile(`(?i)\b(?:C\.?U\.?I\.?|C\.?I\.?F\.?|cod\s+unic|cod\s+fiscal)\b`)
	reONRC   = regexp.MustCompile(`\b([JFC]\s?\d{1,2}/\d{1,7}/\d{4})\b`)
	reIBAN   = regexp.MustCompile(`\bRO\d{2}\s?[A-Z]{4}(?:\s?[0-9A-Z]{4}){4}\b`)
	reCNP    = regexp.MustCompile(`\b[1-9]\d{12}\b`)

	reONRCExact = regexp.MustCompile(`^[JFC]\d{1,2}/\d{1,7}/\d{4}$`)
	reIBANExact = regexp.MustCompile(`^RO\d{2}[A-Z]{4}[0-9A-Z]{16}$`)
)

// cuiKey is the official control key for the CUI check digit.
const cuiKey = "753217532"

// ValidCUI verifies the check digit of a Romanian tax identifier.
// Accepts an optional RO prefix and 2-10 digits.
func ValidCUI(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "RO")
	s = strings.TrimSpace(s)
	if len(s) < 2 || len(s) > 10 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	body, check := s[:len(s)-1], int(s[len(s)-1]-'0')
	// pad to the 9-digit key length
	for len(body) < len(cuiKey) {
		body = "0" + body
	}
	sum := 0
	for i := 0; i < len(cuiKey); i++ {
		sum += int(body[i]-'0') * int(cuiKey[i]-'0')
	}
	digit := sum * 10 % 11
	if digit == 10 {
		digit = 0
	}
	return digit == check
}

// ValidONRC checks the trade-register number shape (J12/345/2020; F and C
// prefixes cover sole traders and family businesses).
func ValidONRC(s string) bool {
	s = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
	return reONRCExact.MatchString(s)
}

// ValidRomanianIBAN checks shape (RO + 2 check digits + 4-letter bank code +
// 16 alphanumerics) and the ISO 7064 mod-97 checksum.
func ValidRomanianIBAN(s string) bool {
	s = strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(s)), " ", "")
	if !reIBANExact.MatchString(s) {
		return false
	}
	return ibanMod97(s) == 1
}

func ibanMod97(iban string) int {
	rearranged := iban[4:] + iban[:4]
	rem := 0
	for _, r := range rearranged {
		if r >= '0' && r <= '9' {
			rem = (rem*10 + int(r-'0')) % 97
		} else {
			v := int(r-'A') + 10
			rem = (rem*100 + v) % 97
		}
	}
	return rem
}

// ValidCNP verifies the check digit of a Romanian personal numeric code.
func ValidCNP(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 13 {
		return false
	}
	const key = "279146358279"
	sum := 0
	for i := 0; i < 12; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += int(s[i]-'0') * int(key[i]-'0')
	}
	digit := sum % 11
	if digit == 10 {
		digit = 1
	}
	return digit == int(s[12]-'0')
}

// FindIBAN returns the first Romanian IBAN found in free text.
func FindIBAN(text string) (string, bool) {
	m := reIBAN.FindString(strings.ToUpper(text))
	if m == "" {
		return "", false
	}
	return strings.ReplaceAll(m, " ", ""), true
}

// FindONRC returns the first trade-register number found in free text.
func FindONRC(text string) (string, bool) {
	m := reONRC.FindStringSubmatch(strings.ToUpper(text))
	if m == nil {
		return "", false
	}
	return strings.ReplaceAll(m[1], " ", ""), true
}

// FindCUI looks for a tax identifier near a CUI/CIF label, falling back to
// the first digit run that passes the check digit.
func FindCUI(text string) (string, bool) {
	upper := strings.ToUpper(text)
	for _, line := range strings.Split(upper, "\n") {
		if !reCUITag.MatchString(line) {
			continue
		}
		for _, m := range reCUI.FindAllStringSubmatch(line, -1) {
			if ValidCUI(m[1]) {
				return m[1], true
			}
		}
	}
	for _, m := range reCUI.FindAllStringSubmatch(upper, -1) {
		if ValidCUI(m[1]) {
			return m[1], true
		}
	}
	return "", false
}

// FindCNP returns the first valid personal numeric code found in free text.
func FindCNP(text string) (string, bool) {
	for _, m := range reCNP.FindAllString(text, -1) {
		if ValidCNP(m) {
			return m, true
		}
	}
	return "", false
}
