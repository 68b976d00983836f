package tesseract

import (
	"regexp"
	"strings"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/normalize"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

var (
	reCompany = regexp.MustCompile(`(?i)\b(S\.?C\.?\s+)?([A-ZĂÂÎȘȚ][A-Za-zĂÂÎȘȚăâîșț0-9&.\- ]{2,60})\s+(S\.?R\.?L\.?|S\.?A\.?|P\.?F\.?A\.?|I\.?I\.?)\b`)
	reNameTag = regexp.MustCompile(`(?i)^(denumire|firma|nume\s+si\s+prenume|nume)\s*[:\-]\s*(.+)$`)
	reAddrTag = regexp.MustCompile(`(?i)^(sediu(l)?\s+social|adresa|domiciliu)\s*[:\-]\s*(.+)$`)
	reBankTag = regexp.MustCompile(`(?i)^(banca|bank)\s*[:\-]\s*(.+)$`)
)

// guessFields mines the recognized text for the identifiers Romanian
// compliance documents carry. Checksum-validated matches inherit a boosted
// confidence; label-based guesses stay at the base text confidence.
func guessFields(text string, dt constants.DocumentType, textConf float64) []ocr.RawField {
	if textConf <= 0 {
		textConf = 40
	}
	boosted := textConf + 10
	if boosted > 99 {
		boosted = 99
	}

	var fields []ocr.RawField
	add := func(name, value string, conf float64) {
		fields = append(fields, ocr.RawField{Name: name, Value: value, Confidence: conf})
	}

	if cui, ok := normalize.FindCUI(text); ok {
		add(entity.FieldCUI, cui, boosted)
	}
	if onrc, ok := normalize.FindONRC(text); ok {
		add(entity.FieldTradeRegisterNumber, onrc, boosted)
	}
	if iban, ok := normalize.FindIBAN(text); ok {
		conf := textConf
		if normalize.ValidRomanianIBAN(iban) {
			conf = boosted
		}
		add(entity.FieldIBAN, iban, conf)
	}
	if dt == constants.DocTypeIdentityCard {
		if cnp, ok := normalize.FindCNP(text); ok {
			add(entity.FieldPersonalID, cnp, boosted)
		}
		if name, ok := labeledLine(text, reNameTag, 2); ok {
			add(entity.FieldFullName, name, textConf)
		}
	} else {
		if m := reCompany.FindStringSubmatch(text); m != nil {
			add(entity.FieldBusinessName, strings.TrimSpace(m[0]), textConf)
		} else if name, ok := labeledLine(text, reNameTag, 2); ok {
			add(entity.FieldBusinessName, name, textConf)
		}
	}
	if addr, ok := labeledLine(text, reAddrTag, 3); ok {
		add(entity.FieldAddress, addr, textConf)
	}
	if bank, ok := labeledLine(text, reBankTag, 2); ok {
		add(entity.FieldBankName, bank, textConf)
	}
	return fields
}

func labeledLine(text string, re *regexp.Regexp, group int) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		if m := re.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			v := strings.TrimSpace(m[group])
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}
