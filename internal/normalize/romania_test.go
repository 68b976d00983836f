package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidCUI(t *testing.T) {
	valid := []string{"1590082", "13590", "132", "16306155", "22245036", "RO1590082", "ro 1590082", " 1590082 "}
	for _, s := range valid {
		assert.True(t, ValidCUI(s), "expected valid: %q", s)
	}

	invalid := []string{"", "1", "1590083", "131", "abcdefg", "159008212345", "RO"}
	for _, s := range invalid {
		assert.False(t, ValidCUI(s), "expected invalid: %q", s)
	}
}

func TestValidONRC(t *testing.T) {
	valid := []string{"J40/1234/2020", "F12/345/1999", "C1/1/2023", "j40/1234/2020", "J 40/1234/2020"}
	for _, s := range valid {
		assert.True(t, ValidONRC(s), "expected valid: %q", s)
	}

	invalid := []string{"", "X40/1234/2020", "J40/1234/20", "J123/1/2020", "40/1234/2020", "J40-1234-2020"}
	for _, s := range invalid {
		assert.False(t, ValidONRC(s), "expected invalid: %q", s)
	}
}

func TestValidRomanianIBAN(t *testing.T) {
	valid := []string{
		"RO49AAAA1B31007593840000",
		"RO65BTRLRONCRT0123456789",
		"ro49 aaaa 1b31 0075 9384 0000",
	}
	for _, s := range valid {
		assert.True(t, ValidRomanianIBAN(s), "expected valid: %q", s)
	}

	invalid := []string{
		"",
		"RO48AAAA1B31007593840000", // bad check digits
		"RO49AAAA1B3100759384000",  // too short
		"DE89370400440532013000",   // not Romanian
	}
	for _, s := range invalid {
		assert.False(t, ValidRomanianIBAN(s), "expected invalid: %q", s)
	}
}

func TestValidCNP(t *testing.T) {
	valid := []string{"1980726123459", "1800515123451", "2970318123458"}
	for _, s := range valid {
		assert.True(t, ValidCNP(s), "expected valid: %q", s)
	}

	invalid := []string{"", "1980726123450", "198072612345", "19807261234599", "198072612345X"}
	for _, s := range invalid {
		assert.False(t, ValidCNP(s), "expected invalid: %q", s)
	}
}

func TestFindCUIPrefersLabeledLine(t *testing.T) {
	text := "Contract nr. 13590 din 2020\nC.U.I.: RO 1590082\nJ40/1234/2020"
	cui, ok := FindCUI(text)
	assert.True(t, ok)
	assert.Equal(t, "1590082", cui)
}

func TestFindCUIFallsBackToAnyValidRun(t *testing.T) {
	cui, ok := FindCUI("factura emisa de firma cu cod 1590082 azi")
	assert.True(t, ok)
	assert.Equal(t, "1590082", cui)

	_, ok = FindCUI("niciun identificator aici")
	assert.False(t, ok)
}

func TestFindIBAN(t *testing.T) {
	iban, ok := FindIBAN("Cont: RO49 AAAA 1B31 0075 9384 0000 deschis la banca")
	assert.True(t, ok)
	assert.Equal(t, "RO49AAAA1B31007593840000", iban)

	_, ok = FindIBAN("fara cont bancar")
	assert.False(t, ok)
}

func TestFindONRC(t *testing.T) {
	nr, ok := FindONRC("Inregistrata la ONRC sub J40/1234/2020.")
	assert.True(t, ok)
	assert.Equal(t, "J40/1234/2020", nr)
}

func TestFindCNP(t *testing.T) {
	cnp, ok := FindCNP("CNP 1980726123459 emis de SPCLEP")
	assert.True(t, ok)
	assert.Equal(t, "1980726123459", cnp)

	_, ok = FindCNP("CNP 1980726123450") // bad check digit
	assert.False(t, ok)
}
