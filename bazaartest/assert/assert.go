/*
Package assert holds the few checks that marketplace tests repeat all the
time. Every function fails the test immediately.
*/
package assert

import (
	"reflect"
	"testing"

	"github.com/iov-one/bazaar/errors"
)

// Tester is the part of testing.TB used by the checks.
type Tester interface {
	Helper()
	Fatal(...interface{})
	Fatalf(string, ...interface{})
}

// Nil fails unless value is nil. Errors are printed with %+v so that the
// stack trace is visible.
func Nil(t Tester, value interface{}) {
	t.Helper()
	if !isNil(value) {
		t.Fatalf("want a nil value, got %+v", value)
	}
}

func isNil(value interface{}) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}
	return false
}

// Equal fails unless both values are deeply equal.
func Equal(t Tester, want, got interface{}) {
	t.Helper()
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("values not equal \nwant %T %v\n got %T %v", want, want, got, got)
	}
}

// Panics fails unless fn panics.
func Panics(t Tester, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	fn()
}

// FieldError fails unless err carries an error of kind want for the named
// field. A nil want requires that the field has no error at all.
func FieldError(t testing.TB, err error, fieldName string, want *errors.Error) {
	t.Helper()

	found := errors.FieldErrors(err, fieldName)
	switch {
	case want == nil && len(found) == 0:
		return
	case want == nil:
		t.Fatalf("%s: want no error, got %q", fieldName, found[0])
	case len(found) == 0:
		t.Fatalf("%s: want %q, got no error", fieldName, want)
	}
	for _, e := range found {
		if want.Is(e) {
			return
		}
	}
	t.Fatalf("%s: want %q, got %q", fieldName, want, found[0])
}

// IsErr fails unless got is of the same kind as want.
func IsErr(t Tester, want, got error) {
	t.Helper()
	if want == got {
		return
	}
	if kind, ok := want.(interface{ Is(error) bool }); ok && kind.Is(got) {
		return
	}
	t.Fatalf("want %q, got %+v", want, got)
}
