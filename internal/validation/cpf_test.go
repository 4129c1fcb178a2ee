package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCPF(t *testing.T) {
	t.Run("accepts valid CPFs", func(t *testing.T) {
		valid := []string{
			"93350016006",
			"933.500.160-06",
			"52998224725",
			"529.982.247-25",
		}

		for _, cpf := range valid {
			assert.True(t, IsValidCPF(cpf), "expected %s to be valid", cpf)
		}
	})

	t.Run("rejects invalid CPFs", func(t *testing.T) {
		invalid := []string{
			"",
			"0000111000",
			"93350016005",
			"93350016096",
			"9335001600",
			"933500160060",
			"9335001600a",
			"933 500 160 06",
		}

		for _, cpf := range invalid {
			assert.False(t, IsValidCPF(cpf), "expected %s to be invalid", cpf)
		}
	})

	t.Run("rejects repeated-digit CPFs despite valid checksum", func(t *testing.T) {
		for _, cpf := range []string{"00000000000", "11111111111", "99999999999"} {
			assert.False(t, IsValidCPF(cpf), "expected %s to be invalid", cpf)
		}
	})
}
