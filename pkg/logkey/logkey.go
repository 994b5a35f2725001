package logkey

// Keys used for structured logging so log fields stay consistent
// across handlers and services.
const (
	TraceID = "Trace ID"
	Error   = "Error"
	OrderID = "Order ID"
	UserID  = "User ID"
)
