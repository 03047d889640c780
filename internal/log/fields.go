// Package log holds shared structured-logging field and component names so
// log lines stay greppable across the binaries.
package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldEntryID     = "entry_id"
	FieldGoalID      = "goal_id"
	FieldMonth       = "month"
	FieldAmountCents = "amount_cents"
	FieldRowRef      = "row_ref"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentExport   = "export"
	ComponentRollover = "rollover"
	ComponentAuth     = "auth"
	ComponentCache    = "cache"
)
