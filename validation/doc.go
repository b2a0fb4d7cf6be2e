// Package validation checks request payloads and entity fields.
//
// Handlers bind JSON bodies and call Struct on them; domain factories chain
// explicit checks:
//
//	err := validation.New().
//		Required("name", u.Name).
//		Email("email", u.Email).
//		Err()
//
// Both forms produce an INVALID_INPUT AppError whose details list every
// failing field.
package validation
