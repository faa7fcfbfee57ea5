package token

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestNewOTP_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := NewOTP()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
	}
}

func TestNewNumericCode_CoversEveryDigit(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 200; i++ {
		code, err := NewNumericCode(CodeLength)
		require.NoError(t, err)
		for _, r := range code {
			seen[r] = true
		}
	}
	assert.Len(t, seen, 10)
}

func TestNewNumericCode_RejectsNonPositive(t *testing.T) {
	_, err := NewNumericCode(0)
	assert.Error(t, err)
}
