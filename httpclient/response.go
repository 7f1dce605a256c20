package httpclient

import (
	"net/http"
	"time"
)

// Response is the raw result of one physical attempt.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Stats      Stats
}

// Stats describes the logical call that produced a successful response.
type Stats struct {
	ElapsedTime time.Duration
	Attempts    int
}

// IsSuccessStatus reports whether statusCode is in the 2xx range.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
