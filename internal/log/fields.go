package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldPeriod     = "period"
	FieldMonth      = "month"
	FieldYear       = "year"
	FieldAmount     = "amount"
	FieldCurrency   = "currency"
	FieldCategory   = "category"
	FieldClientID   = "client_id"
	FieldRecordID   = "record_id"
	FieldRate       = "rate"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentMirror  = "mirror"
	ComponentRates   = "rates"
	ComponentAdvisor = "advisor"
	ComponentCache   = "cache"
	ComponentVault   = "vault"
)
