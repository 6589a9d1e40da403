/*
Package errors implements the error kinds used across bazaar.

Every error returned by a bazaar package wraps one of the root errors
declared here. Root errors carry a unique code; use Register(code,
description) to declare a new one during program startup. Test for an error
kind with ErrXyz.Is(err), which looks through wrapped and grouped errors.

Create errors using ErrXyz.New("...") or Wrap(err, "...") at the point of
failure so that a stack trace is attached. Only the innermost wrap records
the stack.

	%s is just the error message
	%+v is the message followed by the stack trace

All market errors (ErrUnknownAsset, ErrNotOwner, ...) describe a rejected
request. They are never fatal and the state is guaranteed to be unchanged
when one is returned.
*/
package errors
