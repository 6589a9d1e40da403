package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If none or only nil errors are provided, nil is returned. A single non nil
// error is returned unchanged.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
			continue
		}
		res = append(res, e)
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

// multiErr represents a group of errors.
type multiErr []error

func (m multiErr) Error() string {
	msgs := make([]string, len(m))
	for i, e := range m {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d errors occurred: %s", len(m), strings.Join(msgs, "; "))
}

// Unpack returns all errors of this group.
func (m multiErr) Unpack() []error {
	return m
}
