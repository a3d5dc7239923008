package xrl

// Logging convention in the xrl package:
// Info:
//     essential events for abnormal behavior. This level should be silent
//     on normal operation, with the exception of one time (infrequent)
//     initialization data that is useful for monitoring
//     this includes:
//     - core process exits and connection loss
//     - inbound traffic that cannot be routed
// V(1):
//     one line per outbound call (method and params)
// V(2):
//     frame level traces (raw inbound/outbound messages, pings)

const traceValueLimit = 512

// traceValue renders a wire value for the logs, truncated so a large paste
// or update does not flood them.
func traceValue(value []byte) string {
	if len(value) <= traceValueLimit {
		return string(value)
	}
	return string(value[:traceValueLimit]) + "..."
}
