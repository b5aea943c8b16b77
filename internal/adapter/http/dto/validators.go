package dto

import (
	"reflect"
	"strings"

	"schnl-ledger/internal/core/domain"
	"schnl-ledger/pkg/units"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterValidators(v)
	}
}

// RegisterValidators adds the ledger's custom tags to v.
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("address", validateAddress)
	_ = v.RegisterValidation("uint_str", validateUintString)
}

// validateAddress accepts 0x-prefixed 20-byte hex addresses.
func validateAddress(fl validator.FieldLevel) bool {
	return domain.IsValidAddress(fl.Field().String())
}

// validateUintString accepts base-10 integers in [0, 2^256-1].
func validateUintString(fl validator.FieldLevel) bool {
	v, err := units.ParseBase(fl.Field().String())
	if err != nil {
		return false
	}
	return domain.InRange(v)
}

// SanitizeStruct trims whitespace on every exported string field (including
// *string) of a struct pointer. Values are otherwise stored verbatim; JSON
// encoding escapes them on output.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			if elem := f.Elem(); elem.Kind() == reflect.String {
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}

// MustAddress parses a field that already passed the address validator.
func MustAddress(s string) domain.Address {
	a, err := domain.ParseAddress(s)
	if err != nil {
		return ""
	}
	return a
}
