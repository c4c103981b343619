package log

import (
	"time"
)

// Standard field names for consistent logging across the portal.
const (
	FieldRequestID    = "request_id"
	FieldTraceID      = "trace_id"
	FieldSpanID       = "span_id"
	FieldAccountID    = "account_id"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldRoute        = "route"
	FieldStatusCode   = "status_code"
	FieldResponseTime = "response_time"
	FieldResponseSize = "response_size"
	FieldClientIP     = "client_ip"

	FieldService     = "service"
	FieldVersion     = "version"
	FieldComponent   = "component"
	FieldEnvironment = "environment"

	FieldOperation = "operation"
	FieldEntity    = "entity"
	FieldEntityID  = "entity_id"
	FieldCount     = "count"

	FieldDatabase = "database"

	FieldAuthMethod = "auth_method"
	FieldRole       = "role"
	FieldIdentifier = "identifier"
)

// RequestFields creates standard request logging fields.
func RequestFields(requestID, method, path, clientIP string) []Field {
	return []Field{
		String(FieldRequestID, requestID),
		String(FieldMethod, method),
		String(FieldPath, path),
		String(FieldClientIP, clientIP),
	}
}

// ResponseFields creates standard response logging fields.
func ResponseFields(statusCode int, responseSize int64, duration time.Duration) []Field {
	return []Field{
		Int(FieldStatusCode, statusCode),
		Int64(FieldResponseSize, responseSize),
		Duration(FieldResponseTime, duration),
	}
}

// EntityFields identifies a persistence operation on one entity type.
func EntityFields(entity, operation string) []Field {
	return []Field{
		String(FieldEntity, entity),
		String(FieldOperation, operation),
	}
}

// SecurityFields describes an authentication decision.
func SecurityFields(identifier, authMethod, role string) []Field {
	return []Field{
		String(FieldIdentifier, identifier),
		String(FieldAuthMethod, authMethod),
		String(FieldRole, role),
	}
}

// StartupFields creates standard application startup fields.
func StartupFields(service, version, environment string) []Field {
	return []Field{
		String(FieldService, service),
		String(FieldVersion, version),
		String(FieldEnvironment, environment),
	}
}

// ShutdownFields creates standard application shutdown fields.
func ShutdownFields(reason string, uptime time.Duration) []Field {
	return []Field{
		String("shutdown_reason", reason),
		Duration("uptime", uptime),
	}
}
