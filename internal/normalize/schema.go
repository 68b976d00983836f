package normalize

import (
	"strings"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
)

// FieldSchema declares which canonical fields a document type carries and
// which of those a usable extraction must contain. Extend by adding table
// entries, not branches.
type FieldSchema struct {
	Expected []string // empty means free-form: keep whatever the provider found
	Required []string
}

var fieldSchemas = map[constants.DocumentType]FieldSchema{
	constants.DocTypeTaxRegistrationCertificate: {
		Expected: []string{entity.FieldBusinessName, entity.FieldCUI, entity.FieldTradeRegisterNumber, entity.FieldAddress},
		Required: []string{entity.FieldBusinessName, entity.FieldCUI, entity.FieldTradeRegisterNumber},
	},
	constants.DocTypeTradeRegisterExtract: {
		Expected: []string{entity.FieldBusinessName, entity.FieldCUI, entity.FieldTradeRegisterNumber, entity.FieldAddress, entity.FieldRepresentative},
		Required: []string{entity.FieldBusinessName, entity.FieldTradeRegisterNumber},
	},
	constants.DocTypeBankStatement: {
		Expected: []string{entity.FieldBusinessName, entity.FieldIBAN, entity.FieldBankName},
		Required: []string{entity.FieldIBAN},
	},
	constants.DocTypeIdentityCard: {
		Expected: []string{entity.FieldFullName, entity.FieldPersonalID, entity.FieldAddress},
		Required: []string{entity.FieldFullName, entity.FieldPersonalID},
	},
	constants.DocTypeContract: {
		Expected: []string{entity.FieldBusinessName, entity.FieldCUI, entity.FieldIBAN},
	},
	constants.DocTypeOther: {},
}

// SchemaFor returns the field schema for a document type. Unknown types fall
// back to free-form.
func SchemaFor(dt constants.DocumentType) FieldSchema {
	return fieldSchemas[dt]
}

// fieldAliases maps provider-reported field names onto the canonical set.
// Canonical names map to themselves.
var fieldAliases = map[string]string{
	entity.FieldBusinessName:        entity.FieldBusinessName,
	"company_name":                  entity.FieldBusinessName,
	"denumire":                      entity.FieldBusinessName,
	"firma":                         entity.FieldBusinessName,
	"merchant_name":                 entity.FieldBusinessName,
	entity.FieldCUI:                 entity.FieldCUI,
	"cif":                           entity.FieldCUI,
	"cod_fiscal":                    entity.FieldCUI,
	"tax_id":                        entity.FieldCUI,
	"vat_number":                    entity.FieldCUI,
	entity.FieldTradeRegisterNumber: entity.FieldTradeRegisterNumber,
	"onrc":                          entity.FieldTradeRegisterNumber,
	"reg_com":                       entity.FieldTradeRegisterNumber,
	"registration_number":           entity.FieldTradeRegisterNumber,
	entity.FieldAddress:             entity.FieldAddress,
	"adresa":                        entity.FieldAddress,
	"sediu":                         entity.FieldAddress,
	entity.FieldIBAN:                entity.FieldIBAN,
	"bank_account":                  entity.FieldIBAN,
	"cont_bancar":                   entity.FieldIBAN,
	entity.FieldBankName:            entity.FieldBankName,
	"banca":                         entity.FieldBankName,
	entity.FieldRepresentative:      entity.FieldRepresentative,
	"administrator":                 entity.FieldRepresentative,
	"reprezentant":                  entity.FieldRepresentative,
	entity.FieldFullName:            entity.FieldFullName,
	"name":                          entity.FieldFullName,
	"nume":                          entity.FieldFullName,
	entity.FieldPersonalID:          entity.FieldPersonalID,
	"cnp":                           entity.FieldPersonalID,
}

// CanonicalFieldName maps a provider field name onto the canonical set.
// Unknown names are normalized (lowercase, snake_case) and passed through.
func CanonicalFieldName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return key
}
