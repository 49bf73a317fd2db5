package errors

import (
	stderrors "errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// FromDB classifies a raw gorm/driver error. Record-not-found becomes
// notFound, unique violations become Conflict, anything else Storage.
func FromDB(op string, err error, notFound *Error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) && notFound != nil {
		return notFound.WithOp(op)
	}
	if IsDuplicateKey(err) {
		return &Error{Kind: KindConflict, Code: ResourceAlreadyExists, Message: "record already exists", Op: op, Err: err}
	}
	if isForeignKey(err) {
		return &Error{Kind: KindConflict, Code: ResourceConflict, Message: "record is referenced by other data", Op: op, Err: err}
	}
	return Storage(op, err)
}

// IsDuplicateKey recognises unique-constraint violations from both the
// translated gorm error and raw postgres/sqlite messages.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "unique_violation")
}

func isForeignKey(err error) bool {
	if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// FieldErrors flattens validator output into field -> rule.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[lowerFirst(fe.Field())] = rule
	}
	return fields
}

// FromValidator converts validator output into a Validation error.
func FromValidator(op string, err error) error {
	if err == nil {
		return nil
	}
	fields := FieldErrors(err)
	if fields == nil {
		return Validation("", "%v", err).WithOp(op)
	}
	parts := make([]string, 0, len(fields))
	for f, rule := range fields {
		parts = append(parts, f+" ("+rule+")")
	}
	sort.Strings(parts)
	return Validation("", "invalid fields: %s", strings.Join(parts, ", ")).WithOp(op)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
