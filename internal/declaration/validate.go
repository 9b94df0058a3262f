package declaration

import (
	"fmt"
	"regexp"
)

// emailShape is the same permissive local@domain.tld check the form uses:
// anything without whitespace around exactly one structural @ and a dot in
// the domain part.
var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationResult carries every violation found in one pass, keyed by
// field. An empty map means the input is acceptable.
type ValidationResult struct {
	Errors map[FieldKey]string
}

// OK reports whether validation passed.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks the submitted field set against the fixed required-field
// rules. When requireSignature is set, an attached signature raster is also
// demanded (finalization path); drafts pass without one.
//
// The full field set is always checked: all violations are returned
// together, never just the first. Deterministic and side-effect free.
func (in Input) Validate(requireSignature bool) ValidationResult {
	errs := make(map[FieldKey]string)

	for _, f := range requiredFields {
		if in.inputValue(f.key) == "" {
			errs[f.key] = fmt.Sprintf("El campo %s es requerido", f.label)
		}
	}

	// The email shape check is independent of the required check: a present
	// but malformed address replaces the missing-field message.
	if in.Email != "" && !emailShape.MatchString(in.Email) {
		errs[FieldEmail] = "Por favor ingrese un correo electrónico válido"
	}

	if requireSignature && len(in.Signature) == 0 {
		errs[FieldSignature] = "La firma es requerida para completar la declaración"
	}

	if len(errs) == 0 {
		return ValidationResult{}
	}
	return ValidationResult{Errors: errs}
}
