package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field wraps err with the name of the request or model attribute it was
// produced for. It returns nil if err is nil.
//
// Use Go naming for the field name, with dot notation for nested values,
// for example Price.Ticker.
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{
		parent: err,
		field:  fieldName,
		desc:   description,
	}
}

// AppendField is a shortcut for Append(errorsOrNil, Field(...)).
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

func (err *fieldError) Field() string {
	return err.field
}

// FieldErrors returns all errors that were created for the given field name,
// looking through wrapped and grouped errors.
func FieldErrors(err error, fieldName string) []error {
	if isNilErr(err) {
		return nil
	}

	var res []error
	for err != nil {
		if f, ok := err.(*fieldError); ok && f.Field() == fieldName {
			return append(res, err)
		}
		if u, ok := err.(unpacker); ok {
			for _, e := range u.Unpack() {
				res = append(res, FieldErrors(e, fieldName)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return res
}
