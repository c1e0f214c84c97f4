package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashParts(t *testing.T) {
	h := DefaultHasher()

	assert.Equal(t, h.HashParts("hello", "grammar,spelling"), h.HashParts("hello", "grammar,spelling"))
	assert.NotEqual(t, h.HashParts("ab", "c"), h.HashParts("a", "bc"))
	assert.Len(t, h.HashString("x"), 64)
	assert.Equal(t, "abcdefgh", ShortHash("abcdefghijkl"))
	assert.Equal(t, "abc", ShortHash("abc"))
}

func TestValidateText(t *testing.T) {
	assert.Error(t, ValidateText(""))
	assert.Error(t, ValidateText("   \n"))
	assert.Error(t, ValidateText(strings.Repeat("a", MaxTextSize+1)))
	assert.Error(t, ValidateText(string([]byte{0xff, 0xfe})))
	assert.NoError(t, ValidateText("Hello world"))
}

func TestValidateChecks(t *testing.T) {
	assert.NoError(t, ValidateChecks([]string{"grammar"}))
	assert.Error(t, ValidateChecks(make([]string, MaxChecks+1)))
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "", RedactSecret(""))
	assert.Equal(t, "*****", RedactSecret("short"))
	assert.Equal(t, "AIza…wxyz", RedactSecret("AIzaSyD-0123456789wxyz"))
}
