package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention so the owning module can be
// recovered with ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessagingError     ErrorCode = "COMMON_018"
	ErrCodeSearchError        ErrorCode = "COMMON_019"
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES      ErrorCode = "MOL_001"
	ErrCodeMoleculeEmpty              ErrorCode = "MOL_002"
	ErrCodeAtomIndexOutOfRange        ErrorCode = "MOL_003"
	ErrCodeMoleculeUnsupportedElement ErrorCode = "MOL_004"
)

// Fingerprint Module Error Codes
const (
	ErrCodeFingerprintTypeUnsupported  ErrorCode = "FP_001"
	ErrCodeFingerprintIncompatible     ErrorCode = "FP_002"
	ErrCodeFingerprintGenerationFailed ErrorCode = "FP_003"
	ErrCodeMetricUnsupported           ErrorCode = "FP_004"
)

// Similarity Map Module Error Codes
const (
	ErrCodeWeightsComputationFailed ErrorCode = "SIMMAP_001"
	ErrCodeWeightsLengthMismatch    ErrorCode = "SIMMAP_002"
	ErrCodeRenderFailed             ErrorCode = "SIMMAP_003"
	ErrCodeRendererUnavailable      ErrorCode = "SIMMAP_004"
	ErrCodeMapNotFound              ErrorCode = "SIMMAP_005"
	ErrCodeJobFailed                ErrorCode = "SIMMAP_006"
	ErrCodeReferenceNotFound        ErrorCode = "SIMMAP_007"
	ErrCodeModelInvalid             ErrorCode = "SIMMAP_008"
)

// Aliases used across layers.
const (
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented

	CodeDBQueryError      = ErrCodeDatabaseError
	CodeCacheError        = ErrCodeCacheError
	CodeStorageError      = ErrCodeStorageError
	CodeMessageQueueError = ErrCodeMessagingError
	CodeSearchError       = ErrCodeSearchError
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeSearchError:        http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES:      http.StatusBadRequest,
	ErrCodeMoleculeEmpty:              http.StatusBadRequest,
	ErrCodeAtomIndexOutOfRange:        http.StatusBadRequest,
	ErrCodeMoleculeUnsupportedElement: http.StatusBadRequest,

	ErrCodeFingerprintTypeUnsupported:  http.StatusBadRequest,
	ErrCodeFingerprintIncompatible:     http.StatusBadRequest,
	ErrCodeFingerprintGenerationFailed: http.StatusInternalServerError,
	ErrCodeMetricUnsupported:           http.StatusBadRequest,

	ErrCodeWeightsComputationFailed: http.StatusInternalServerError,
	ErrCodeWeightsLengthMismatch:    http.StatusBadRequest,
	ErrCodeRenderFailed:             http.StatusInternalServerError,
	ErrCodeRendererUnavailable:      http.StatusServiceUnavailable,
	ErrCodeMapNotFound:              http.StatusNotFound,
	ErrCodeJobFailed:                http.StatusInternalServerError,
	ErrCodeReferenceNotFound:        http.StatusNotFound,
	ErrCodeModelInvalid:             http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message queue error",
	ErrCodeSearchError:        "search backend error",

	ErrCodeMoleculeInvalidSMILES:      "invalid SMILES",
	ErrCodeMoleculeEmpty:              "molecule has no atoms",
	ErrCodeAtomIndexOutOfRange:        "atom index out of range",
	ErrCodeMoleculeUnsupportedElement: "unsupported element",

	ErrCodeFingerprintTypeUnsupported:  "unsupported fingerprint type",
	ErrCodeFingerprintIncompatible:     "incompatible fingerprints",
	ErrCodeFingerprintGenerationFailed: "failed to generate fingerprint",
	ErrCodeMetricUnsupported:           "unsupported similarity metric",

	ErrCodeWeightsComputationFailed: "failed to compute atomic weights",
	ErrCodeWeightsLengthMismatch:    "weights do not match the molecule",
	ErrCodeRenderFailed:             "failed to render similarity map",
	ErrCodeRendererUnavailable:      "no rendering backend configured",
	ErrCodeMapNotFound:              "similarity map not found",
	ErrCodeJobFailed:                "similarity map job failed",
	ErrCodeReferenceNotFound:        "reference molecule not found",
	ErrCodeModelInvalid:             "invalid prediction model",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
