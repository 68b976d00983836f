package tesseract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrolink-ro/supplier-docs/constants"
	"github.com/agrolink-ro/supplier-docs/internal/entity"
	"github.com/agrolink-ro/supplier-docs/internal/ocr"
)

func fieldByName(fields []ocr.RawField, name string) (ocr.RawField, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return ocr.RawField{}, false
}

func TestGuessFieldsTaxCertificate(t *testing.T) {
	text := "CERTIFICAT DE INREGISTRARE\n" +
		"Denumire: AGRO FERM S.R.L.\n" +
		"Cod unic de inregistrare: RO 1590082\n" +
		"Nr. de ordine in registrul comertului: J40/1234/2020\n" +
		"Sediul social: Str. Plugului 12, Cluj-Napoca"

	fields := guessFields(text, constants.DocTypeTaxRegistrationCertificate, 85)

	cui, ok := fieldByName(fields, entity.FieldCUI)
	require.True(t, ok)
	assert.Equal(t, "1590082", cui.Value)
	assert.Equal(t, 95.0, cui.Confidence, "checksum-validated match gets the boost")

	onrc, ok := fieldByName(fields, entity.FieldTradeRegisterNumber)
	require.True(t, ok)
	assert.Equal(t, "J40/1234/2020", onrc.Value)

	name, ok := fieldByName(fields, entity.FieldBusinessName)
	require.True(t, ok)
	assert.Contains(t, name.Value, "AGRO FERM")
	assert.Equal(t, 85.0, name.Confidence, "label guesses keep the text confidence")

	addr, ok := fieldByName(fields, entity.FieldAddress)
	require.True(t, ok)
	assert.Contains(t, addr.Value, "Plugului")
}

func TestGuessFieldsBankStatement(t *testing.T) {
	text := "EXTRAS DE CONT\n" +
		"Banca: Banca Agricola\n" +
		"Cont: RO49 AAAA 1B31 0075 9384 0000"

	fields := guessFields(text, constants.DocTypeBankStatement, 80)

	iban, ok := fieldByName(fields, entity.FieldIBAN)
	require.True(t, ok)
	assert.Equal(t, "RO49AAAA1B31007593840000", iban.Value)
	assert.Equal(t, 90.0, iban.Confidence)

	bank, ok := fieldByName(fields, entity.FieldBankName)
	require.True(t, ok)
	assert.Equal(t, "Banca Agricola", bank.Value)
}

func TestGuessFieldsIdentityCard(t *testing.T) {
	text := "CARTE DE IDENTITATE\n" +
		"Nume si prenume: POPESCU ION\n" +
		"CNP 1980726123459\n" +
		"Domiciliu: Sat Vulturesti nr. 3"

	fields := guessFields(text, constants.DocTypeIdentityCard, 70)

	cnp, ok := fieldByName(fields, entity.FieldPersonalID)
	require.True(t, ok)
	assert.Equal(t, "1980726123459", cnp.Value)

	name, ok := fieldByName(fields, entity.FieldFullName)
	require.True(t, ok)
	assert.Equal(t, "POPESCU ION", name.Value)

	_, ok = fieldByName(fields, entity.FieldBusinessName)
	assert.False(t, ok, "identity cards carry a person, not a company")
}

func TestGuessFieldsConfidenceBoostCaps(t *testing.T) {
	fields := guessFields("C.U.I. 1590082", constants.DocTypeOther, 95)
	cui, ok := fieldByName(fields, entity.FieldCUI)
	require.True(t, ok)
	assert.Equal(t, 99.0, cui.Confidence)
}

func TestGuessFieldsNothingFound(t *testing.T) {
	fields := guessFields("text fara identificatoare", constants.DocTypeOther, 80)
	assert.Empty(t, fields)
}
