package constants

import "strings"

// OwnerKind distinguishes the two entity kinds a document can belong to.
type OwnerKind string

const (
	OwnerSupplier OwnerKind = "supplier"
	OwnerContact  OwnerKind = "contact"
)

// DocumentType is the declared classification a document is uploaded under.
type DocumentType string

const (
	DocTypeTaxRegistrationCertificate DocumentType = "tax_registration_certificate"
	DocTypeTradeRegisterExtract       DocumentType = "trade_register_extract"
	DocTypeBankStatement              DocumentType = "bank_statement"
	DocTypeIdentityCard               DocumentType = "identity_card"
	DocTypeContract                   DocumentType = "contract"
	DocTypeOther                      DocumentType = "other"
)

// documentTypesByOwner lists which declared types each owner kind accepts.
var documentTypesByOwner = map[OwnerKind]map[DocumentType]struct{}{
	OwnerSupplier: {
		DocTypeTaxRegistrationCertificate: {},
		DocTypeTradeRegisterExtract:       {},
		DocTypeBankStatement:              {},
		DocTypeContract:                   {},
		DocTypeOther:                      {},
	},
	OwnerContact: {
		DocTypeIdentityCard: {},
		DocTypeOther:        {},
	},
}

// ParseOwnerKind parses a free-form owner kind string.
func ParseOwnerKind(s string) (OwnerKind, bool) {
	k := OwnerKind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case OwnerSupplier, OwnerContact:
		return k, true
	}
	return "", false
}

// DocumentTypeAllowed reports whether a declared type is recognized for an owner kind.
func DocumentTypeAllowed(kind OwnerKind, dt DocumentType) bool {
	allowed, ok := documentTypesByOwner[kind]
	if !ok {
		return false
	}
	_, ok = allowed[dt]
	return ok
}
