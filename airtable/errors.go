package airtable

import (
	"errors"

	"github.com/gaborage/go-airtable/httpclient"
)

// Error is the error delivered for every failed call that reached the execution core.
type Error = httpclient.Error

var (
	// ErrMissingBase is returned when no base ID was given and none is configured.
	ErrMissingBase = errors.New("airtable: base not configured")
	// ErrMissingTable is returned when a table name is empty.
	ErrMissingTable = errors.New("airtable: table name is empty")
	// ErrMissingRecordID is returned when a record operation is given an empty ID.
	ErrMissingRecordID = errors.New("airtable: record id is empty")
)

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	return httpclient.IsNotFound(err)
}

// IsRateLimited reports whether err is a 429 that outlived the retry policy.
func IsRateLimited(err error) bool {
	return httpclient.IsRateLimited(err)
}

// AsError extracts the service error from err.
func AsError(err error) (*Error, bool) {
	return httpclient.AsError(err)
}
