package errors

import "net/http"

// HTTPStatus returns the HTTP status code that best describes given error.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case ErrUnknownAsset.Is(err), ErrNotFound.Is(err):
		return http.StatusNotFound
	case ErrNotOwner.Is(err), ErrUnauthorized.Is(err):
		return http.StatusForbidden
	case ErrAssetAlreadyListed.Is(err), ErrNoActiveListing.Is(err), ErrConflict.Is(err), ErrDuplicate.Is(err):
		return http.StatusConflict
	case ErrInsufficientPayment.Is(err), ErrInsufficientAmount.Is(err):
		return http.StatusPaymentRequired
	case ErrInvalidMetadata.Is(err), ErrInvalidFee.Is(err), ErrInput.Is(err),
		ErrEmpty.Is(err), ErrAmount.Is(err), ErrCurrency.Is(err), ErrModel.Is(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
