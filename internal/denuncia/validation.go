package denuncia

import (
	"errors"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ValidateProtocolFormat checks the structure of a protocol only: three
// dash-separated parts, "SOS" first and an 8-character last part. The date
// and the hex charset are deliberately not inspected.
func ValidateProtocolFormat(protocol string) bool {
	parts := strings.Split(protocol, "-")
	return len(parts) == 3 &&
		parts[0] == protocolPrefix &&
		utf8.RuneCountInString(parts[2]) == protocolSuffixLen
}

// IsValidEmail reports whether email has an "@" and the segment between the
// first "@" and the next one (or the end) contains a ".".
func IsValidEmail(email string) bool {
	_, rest, ok := strings.Cut(email, "@")
	domain, _, _ := strings.Cut(rest, "@")
	return ok && strings.Contains(domain, ".")
}

// IsValidStatus reports whether status names one of the four report statuses.
func IsValidStatus(status string) bool {
	return Status(status).Valid()
}

var inputValidator = newInputValidator()

// newInputValidator reports fields by their JSON names so messages read
// "O campo titulo é obrigatório." rather than the Go field name.
func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// firstMissingField returns the first empty required field of in, in
// declaration order (titulo, descricao, tipo, localizacao).
func firstMissingField(in ReportInput) (string, bool) {
	err := inputValidator.Struct(in)
	if err == nil {
		return "", false
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		// Only reachable if ReportInput stops being a struct.
		panic(err)
	}
	return verrs[0].Field(), true
}
