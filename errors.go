package ytsheet

import (
	"ytsheet/config"
	"ytsheet/internal/retry"
	"ytsheet/sheets"
	"ytsheet/syncer"
	"ytsheet/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytsheet.ErrQuotaExceeded) {
//		fmt.Println("Daily quota used up, waiting for the next cycle")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var cycleErr *ytsheet.CycleError
//	if errors.As(err, &cycleErr) {
//		fmt.Printf("Cycle failed at %s: %v\n", cycleErr.Stage, cycleErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// FetchError wraps errors from the YouTube Data API.
	FetchError = youtube.FetchError
	// TableError wraps errors from the sheet or local table.
	TableError = sheets.TableError
	// CycleError reports the stage at which a sync cycle stopped.
	CycleError = syncer.CycleError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrMissingAPIKey indicates YOUTUBE_API_KEY is not configured.
	ErrMissingAPIKey = config.ErrMissingAPIKey

	// ErrChannelNotFound indicates the YouTube channel does not exist.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrRateLimited indicates the YouTube API throttled the request.
	ErrRateLimited = youtube.ErrRateLimited
	// ErrQuotaExceeded indicates the daily API quota is exhausted.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrNetworkTimeout indicates a network timeout occurred.
	ErrNetworkTimeout = youtube.ErrNetworkTimeout

	// Table errors
	// ErrSheetNotFound indicates the spreadsheet or worksheet does not exist.
	ErrSheetNotFound = sheets.ErrSheetNotFound
	// ErrPermissionDenied indicates the service account cannot access the sheet.
	ErrPermissionDenied = sheets.ErrPermissionDenied
	// ErrTableCorrupt indicates the local table file could not be parsed.
	ErrTableCorrupt = sheets.ErrTableCorrupt
	// ErrLockTimeout indicates a timeout acquiring the table file lock.
	ErrLockTimeout = sheets.ErrLockTimeout
)

// IsRetryable determines if an error should be retried.
// It returns false for context errors and errors marked permanent.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
