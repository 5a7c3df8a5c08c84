package errz

// Error taxonomy (spec §7). Each constant is a Record.Type value; they are
// plain strings rather than an enum so user code can introduce its own
// domain types (e.g. "ValidationError" subtypes) without modifying errz.
const (
	// Operational.
	TypeValidationError      = "ValidationError"
	TypeEntityError          = "EntityError"
	TypeAmountError          = "AmountError"
	TypeExternalError        = "ExternalError"
	TypeNetworkError         = "NetworkError"
	TypeTimeoutError         = "TimeoutError"
	TypeAborted              = "ABORTED"
	TypeCircuitBreakerOpen   = "CircuitBreakerOpen"
	TypeRateLimited          = "RateLimited"
	TypeMaxRetriesExceeded   = "MaxRetriesExceeded"
	TypeMultipleErrors       = "MultipleErrors"

	// Classification (FromThrown, see fromthrown.go).
	TypeTypeError      = "TypeError"
	TypeReferenceError = "ReferenceError"
	TypeSyntaxError    = "SyntaxError"
	TypeRangeError     = "RangeError"
	TypeURIError       = "URIError"
	TypeEvalError      = "EvalError"
	TypeGenericError   = "Error"
	TypeStringError    = "StringError"
	TypeUnknownError   = "UnknownError"

	// Library-internal.
	TypeConfigurationError = "ConfigurationError"
	TypeUnknownPreset      = "UnknownPreset"
	TypeSerializationError = "SerializationError"
)
