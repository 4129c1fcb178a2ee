package models

import (
	"fmt"
	"strings"
	"time"
)

// birthDateLayout es el formato de fecha usado en el wire (dd-MM-yyyy)
const birthDateLayout = "02-01-2006"

// Customer representa un cliente con su dirección
type Customer struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"firstName" binding:"required"`
	LastName    string    `json:"lastName" binding:"required"`
	Email       string    `json:"email" binding:"required,email"`
	CPF         string    `json:"cpf" binding:"required,cpf"`
	DateOfBirth BirthDate `json:"dateOfBirth" binding:"required,lt"`
	Address     *Address  `json:"address" binding:"required"`
}

// Address representa la dirección de un cliente. La relación es de composición:
// una dirección no existe sin su cliente y se elimina junto con él.
type Address struct {
	ID            int64  `json:"id"`
	Street        string `json:"street" binding:"required"`
	Number        int    `json:"number" binding:"required"`
	ZipCode       string `json:"zipCode" binding:"required,numeric,len=8"`
	Complement    string `json:"complement,omitempty"`
	Neighbourhood string `json:"neighbourhood" binding:"required"`
	City          string `json:"city" binding:"required"`
	UF            string `json:"uf" binding:"required,alphanum,len=2"`
	// CustomerID es la referencia inversa al cliente dueño; nunca se serializa
	CustomerID int64 `json:"-"`
}

// BirthDate es una fecha de nacimiento con formato de wire dd-MM-yyyy
type BirthDate struct {
	time.Time
}

// NewBirthDate crea una fecha de nacimiento a partir de año, mes y día
func NewBirthDate(year int, month time.Month, day int) BirthDate {
	return BirthDate{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON serializa la fecha como "dd-MM-yyyy"
func (b BirthDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.Format(birthDateLayout) + `"`), nil
}

// UnmarshalJSON parsea la fecha desde "dd-MM-yyyy"
func (b *BirthDate) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return nil
	}

	parsed, err := time.Parse(birthDateLayout, value)
	if err != nil {
		return fmt.Errorf("dateOfBirth must use format dd-MM-yyyy: %w", err)
	}

	b.Time = parsed
	return nil
}
