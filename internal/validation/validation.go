package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/hypernova-labs/customer-api/internal/models"
)

// Register instala las reglas de validación propias en el motor de binding de gin
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine: %T", binding.Validator.Engine())
	}

	// Reportar los campos con el nombre del tag json
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// BirthDate se valida como time.Time (required, lt)
	v.RegisterCustomTypeFunc(birthDateValuer, models.BirthDate{})

	return v.RegisterValidation("cpf", validCPF)
}

func birthDateValuer(field reflect.Value) interface{} {
	if b, ok := field.Interface().(models.BirthDate); ok {
		return b.Time
	}
	return nil
}

func validCPF(fl validator.FieldLevel) bool {
	return IsValidCPF(fl.Field().String())
}

// FirstViolation extrae la primera violación de un error de binding.
// Se reporta una sola violación aunque existan varias.
func FirstViolation(err error) (models.ErrorDetail, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return models.ErrorDetail{}, false
	}

	fe := verrs[0]
	return models.ErrorDetail{
		Field: fieldPath(fe),
		Issue: ruleMessage(fe),
	}, true
}

// fieldPath convierte el namespace del error en una ruta estilo json,
// sin el tipo raíz: "Customer.address.zipCode" -> "address.zipCode"
func fieldPath(fe validator.FieldError) string {
	path := fe.Namespace()
	if idx := strings.Index(path, "."); idx >= 0 {
		return path[idx+1:]
	}
	return fe.Field()
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be blank"
	case "email":
		return "must be a well-formed email address"
	case "cpf":
		return "invalid Brazilian individual taxpayer registry number (CPF)"
	case "lt":
		return "must be a past date"
	case "len":
		return fmt.Sprintf("length must be %s", fe.Param())
	case "numeric":
		return "must contain only digits"
	case "alphanum":
		return "must be alphanumeric"
	default:
		return "is invalid"
	}
}
