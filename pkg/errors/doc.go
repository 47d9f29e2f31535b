// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Error codes cover the boot-parameter error taxonomy: parse failures,
// missing profiles, unavailable backends, stuck rpm-ostree transactions,
// permission problems, and bootloader config regeneration failures.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeStuckTransaction,
//	    "rpm-ostree transaction still in progress",
//	    ctx.Err(),
//	    map[string]interface{}{
//	        "backend": "rpm-ostree",
//	        "waited":  waited.String(),
//	    },
//	)
package errors
