package validation

import "strings"

// IsValidCPF valida el dígito verificador de un CPF brasileño.
// Acepta el número con o sin puntuación (999.999.999-99).
func IsValidCPF(cpf string) bool {
	digits := normalizeCPF(cpf)
	if len(digits) != 11 {
		return false
	}

	// CPFs con todos los dígitos iguales pasan el checksum pero no son válidos
	if strings.Count(digits, string(digits[0])) == 11 {
		return false
	}

	if checkDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}

	return checkDigit(digits[:10], 11) == int(digits[10]-'0')
}

// normalizeCPF descarta la puntuación y rechaza cualquier otro carácter
func normalizeCPF(cpf string) string {
	var sb strings.Builder
	for _, r := range cpf {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '.' || r == '-':
			// puntuación permitida
		default:
			return ""
		}
	}
	return sb.String()
}

// checkDigit calcula un dígito verificador módulo 11 con pesos decrecientes
func checkDigit(digits string, weight int) int {
	sum := 0
	for _, r := range digits {
		sum += int(r-'0') * weight
		weight--
	}
	return sum * 10 % 11 % 10
}
