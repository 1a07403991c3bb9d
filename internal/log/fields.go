package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldTxID        = "transaction_id"
	FieldTxTitle     = "transaction_title"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldCount       = "count"
	FieldUser        = "user"
	FieldKey         = "key"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentAPI     = "api"
	ComponentSession = "session"
	ComponentStore   = "store"
	ComponentService = "service"
	ComponentStorage = "storage"
	ComponentExport  = "export"
	ComponentEvents  = "events"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names.
const (
	OpLoad     = "load"
	OpSummary  = "summary"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpLogin    = "login"
	OpRegister = "register"
	OpLogout   = "logout"
	OpRestore  = "restore"
	OpExport   = "export"
	OpSnapshot = "snapshot"
)
