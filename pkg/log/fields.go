package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (set on the gin context by handlers that know the follower)
	FieldFollower = "follower"

	// Domain
	FieldEventID  = "event_id"
	FieldEventIDs = "event_ids"
	FieldClass    = "error_class"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
