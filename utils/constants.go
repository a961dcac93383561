package utils

import "time"

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Request context keys shared by handlers and flows
type contextKey string

const (
	RequestIDKey  contextKey = "request_id"
	UserAgentKey  contextKey = "user_agent"
	IPAddressKey  contextKey = "ip_address"
	EndpointKey   contextKey = "endpoint"
	TimeoutKey    contextKey = "timeout"
	CancelFuncKey contextKey = "cancel_func"
)

// Cache keys
const (
	FieldCacheVersionKey = "fields:version"
	FieldCacheKeyFormat  = "fields:v%d:%d:%d"
)

// Ticket intake defaults
const (
	DefaultTicketNumberPrefix = "P57"
	DefaultRequestTimeout     = 30 * time.Second
	MaxPageSize               = 100
	DefaultPageSize           = 20
)
