package cli

// Error codes for structured error responses.
// These codes are stable and can be relied upon by agents.
const (
	// Scenario errors
	ErrScenarioNotFound    = "SCENARIO_NOT_FOUND"
	ErrScenarioUnavailable = "SCENARIO_UNAVAILABLE"
	ErrCatalogInvalid      = "CATALOG_INVALID"

	// Query errors
	ErrQueryMissing = "QUERY_MISSING"
	ErrQueryInvalid = "QUERY_INVALID"
	ErrSQLFailed    = "SQL_FAILED"

	// Data errors
	ErrDataLoadFailed = "DATA_LOAD_FAILED"

	// File errors
	ErrFileReadError  = "FILE_READ_ERROR"
	ErrFileWriteError = "FILE_WRITE_ERROR"
	ErrFileExists     = "FILE_EXISTS"

	// Config errors
	ErrConfigInvalid = "CONFIG_INVALID"

	// Validation errors
	ErrValidationFailed = "VALIDATION_FAILED"
	ErrInvalidInput     = "INVALID_INPUT"
	ErrMissingArgument  = "MISSING_ARGUMENT"

	// General errors
	ErrInternal = "INTERNAL_ERROR"
)
