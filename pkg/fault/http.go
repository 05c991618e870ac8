package fault

import "net/http"

// HTTPStatus maps an error's kind to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInvalidState:
		return http.StatusConflict
	case KindStorageFailure, KindAuditWrite:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
