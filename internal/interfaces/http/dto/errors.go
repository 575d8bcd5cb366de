package dto

import (
	"net/http"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
)

// API error codes carried in ErrorInfo.Code
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"

	ErrCodeValidation       = "ERR_VALIDATION"
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput     = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON      = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge  = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMedia = "ERR_UNSUPPORTED_MEDIA"
	ErrCodeForbidden        = "ERR_FORBIDDEN"
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"

	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists      = "ERR_ALREADY_EXISTS"
	ErrCodeConflict           = "ERR_CONFLICT"
	ErrCodeStaleVersion       = "ERR_STALE_VERSION"
	ErrCodeUnresolvedConflict = "ERR_UNRESOLVED_CONFLICT"

	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeSchema               = "ERR_SCHEMA"
	ErrCodeRuleConfiguration    = "ERR_RULE_CONFIGURATION"
	ErrCodeUnapprovedProduct    = "ERR_UNAPPROVED_PRODUCT"
	ErrCodeInvalidQuantity      = "ERR_INVALID_QUANTITY"
	ErrCodeInvalidDiscount      = "ERR_INVALID_DISCOUNT"
	ErrCodeNarrativeUnavailable = "ERR_NARRATIVE_UNAVAILABLE"
)

type errorCode struct {
	api    string
	domain string
	status int
}

// errorCodes is the single source for the status of an API code and the
// domain code it translates. Entries without a domain code are raised by the
// HTTP layer itself.
var errorCodes = []errorCode{
	{ErrCodeInternal, "", http.StatusInternalServerError},
	{ErrCodeUnavailable, "", http.StatusServiceUnavailable},
	{ErrCodeValidation, "", http.StatusBadRequest},
	{ErrCodeBadRequest, "", http.StatusBadRequest},
	{ErrCodeInvalidJSON, "", http.StatusBadRequest},
	{ErrCodePayloadTooLarge, "", http.StatusRequestEntityTooLarge},
	{ErrCodeUnsupportedMedia, "", http.StatusUnsupportedMediaType},
	{ErrCodeForbidden, "", http.StatusForbidden},
	{ErrCodeRateLimited, "", http.StatusTooManyRequests},

	{ErrCodeInvalidInput, shared.CodeInvalidInput, http.StatusBadRequest},
	{ErrCodeNotFound, shared.CodeNotFound, http.StatusNotFound},
	{ErrCodeAlreadyExists, shared.CodeAlreadyExists, http.StatusConflict},
	{ErrCodeConflict, shared.CodeConflict, http.StatusConflict},
	{ErrCodeStaleVersion, shared.CodeStaleVersion, http.StatusConflict},
	{ErrCodeUnresolvedConflict, shared.CodeUnresolvedConflict, http.StatusConflict},
	{ErrCodeInvalidState, shared.CodeInvalidState, http.StatusUnprocessableEntity},
	{ErrCodeSchema, shared.CodeSchemaError, http.StatusUnprocessableEntity},
	{ErrCodeRuleConfiguration, shared.CodeRuleConfiguration, http.StatusUnprocessableEntity},
	{ErrCodeUnapprovedProduct, shared.CodeUnapprovedProduct, http.StatusUnprocessableEntity},
	{ErrCodeInvalidQuantity, shared.CodeInvalidQuantity, http.StatusBadRequest},
	{ErrCodeInvalidDiscount, shared.CodeInvalidDiscount, http.StatusBadRequest},
	{ErrCodeNarrativeUnavailable, shared.CodeNarrativeUnavailable, http.StatusServiceUnavailable},
}

var (
	statusByCode = make(map[string]int, len(errorCodes))
	apiByDomain  = make(map[string]string, len(errorCodes))
)

func init() {
	for _, e := range errorCodes {
		statusByCode[e.api] = e.status
		if e.domain != "" {
			apiByDomain[e.domain] = e.api
		}
	}
}

// HTTPStatus returns the response status for an API error code, 500 when
// the code is unknown
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode translates a shared.DomainError code. Unknown codes are
// returned unchanged.
func FromDomainCode(code string) string {
	if api, ok := apiByDomain[code]; ok {
		return api
	}
	return code
}
