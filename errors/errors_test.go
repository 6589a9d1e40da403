package errors

import (
	stdlib "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotOwner, "foo"),
			root: ErrNotOwner,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatalf("unexpected result: %v", got)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNoActiveListing,
			b:      ErrNoActiveListing,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrModel,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrInvalidFee,
			b:      Wrapf(ErrInvalidFee, "want %d", 4),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      errors.Wrap(ErrOverflow, "too big"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is not a root error": {
			a:      nil,
			b:      ErrNotOwner,
			wantIs: false,
		},
		"grouped errors match any member": {
			a:      ErrCurrency,
			b:      Append(ErrAmount, Wrap(ErrCurrency, "ticker")),
			wantIs: true,
		},
		"field error reveals its cause": {
			a:      ErrEmpty,
			b:      Field("Metadata", ErrEmpty, "required"),
			wantIs: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result: %v", got)
			}
		})
	}
}

func TestRegisterDuplicatedCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("panic expected")
		}
	}()
	Register(ErrNotOwner.Code(), "copy")
}

func TestAppend(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Fatalf("want nil, got %v", err)
	}
	if err := Append(nil, ErrEmpty); err != ErrEmpty {
		t.Fatalf("single error must be returned unchanged, got %v", err)
	}
	err := Append(ErrEmpty, Append(ErrAmount, ErrCurrency))
	m, ok := err.(multiErr)
	if !ok {
		t.Fatalf("want a group, got %T", err)
	}
	if len(m) != 3 {
		t.Fatalf("nested groups must be flattened, got %d", len(m))
	}
}

func TestFieldErrors(t *testing.T) {
	err := Append(
		Field("Price", ErrAmount, "negative"),
		Field("Metadata", ErrInvalidMetadata, "empty"),
		ErrInput,
	)
	if errs := FieldErrors(err, "Price"); len(errs) != 1 || !ErrAmount.Is(errs[0]) {
		t.Fatalf("unexpected price errors: %v", errs)
	}
	if errs := FieldErrors(err, "Seller"); len(errs) != 0 {
		t.Fatalf("unexpected seller errors: %v", errs)
	}
}

func TestCode(t *testing.T) {
	if got := Code(Wrap(ErrNotOwner, "x")); got != 201 {
		t.Fatalf("want 201, got %d", got)
	}
	if got := Code(stdlib.New("x")); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"success":         {err: nil, want: http.StatusOK},
		"unknown asset":   {err: Wrap(ErrUnknownAsset, "7"), want: http.StatusNotFound},
		"not owner":       {err: ErrNotOwner, want: http.StatusForbidden},
		"sold":            {err: ErrNoActiveListing, want: http.StatusConflict},
		"underpaid":       {err: ErrInsufficientPayment, want: http.StatusPaymentRequired},
		"bad fee":         {err: ErrInvalidFee, want: http.StatusBadRequest},
		"stdlib failure":  {err: stdlib.New("disk"), want: http.StatusInternalServerError},
		"grouped request": {err: Append(ErrEmpty, ErrInput), want: http.StatusBadRequest},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	if err := run(); !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %v", err)
	}
}
