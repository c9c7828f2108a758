package errors

type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodeInternal         Code = "INTERNAL_ERROR"
	CodeValidationError  Code = "VALIDATION_ERROR"
	CodeConfigReadError  Code = "CONFIG_READ_ERROR"
	CodeConfigParseError Code = "CONFIG_PARSE_ERROR"

	// Reconciliation step failures. A probe error means the current state of
	// the resource could not be determined; it is never retried locally.
	CodeProbeError  Code = "PROBE_ERROR"
	CodeCreateError Code = "CREATE_ERROR"
	CodeDeleteError Code = "DELETE_ERROR"

	CodePlatformAPIError  Code = "PLATFORM_API_ERROR"
	CodePlatformAuthError Code = "PLATFORM_AUTH_ERROR"
	CodeResourceNotFound  Code = "RESOURCE_NOT_FOUND"
	CodeNotImplemented    Code = "NOT_IMPLEMENTED"

	CodeSecretError Code = "SECRET_ERROR"
	CodeQueryError  Code = "QUERY_ERROR"
)

func (c Code) String() string {
	return string(c)
}
