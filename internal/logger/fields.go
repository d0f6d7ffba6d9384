package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldBatchID is the bulk upload batch identifier.
	FieldBatchID = "batch_id"

	// FieldComponent is the component/module name.
	FieldComponent = "component"
)

// Metric fields, attached per log entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldRows is a row count.
	FieldRows = "rows"

	// FieldStatus is an HTTP or operation status.
	FieldStatus = "status"
)
