package api

import (
	"errors"
	"net/http"

	"github.com/conclave-ai/conclave/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatExtraction, core.ErrCatUpstream, core.ErrCatAgent, core.ErrCatTransport:
		return http.StatusBadGateway, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	default:
		return http.StatusInternalServerError, true
	}
}
