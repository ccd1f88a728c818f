//nolint:lll
package api

import (
	"fmt"
	"net/http"
)

// The custom Error type satisfies the error interface.
// Error() returns a human-readable description of the error.
//
// Error codes in the 40001-49999 range are the user's fault,
// and they return HTTP Status 400 or 404 (or even 204), whatever is most appropriate.
//
// Error codes 50001-59999 are the server's fault
// and they return HTTP Status 500 or 503, or something else if appropriate.
//
// NEVER change any of the current error codes, only append new errors after the current last 4XXX or 5XXX.
// There's no correlation between Code and HTTP Status.
var (
	ErrResourceNotFound   = Error{Code: 40001, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("resource not found")}
	ErrMalformedRole      = Error{Code: 40002, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed role, expected A or B")}
	ErrMalformedHeight    = Error{Code: 40003, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed height")}
	ErrStateNotFound      = Error{Code: 40004, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("no proven state yet")}
	ErrCheckpointNotFound = Error{Code: 40005, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("checkpoint not found")}
	ErrKeysNotAvailable   = Error{Code: 40006, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("verifying keys not available")}
	ErrMalformedHash      = Error{Code: 40007, HTTPstatus: http.StatusBadRequest, Err: fmt.Errorf("malformed artifact hash")}
	ErrArtifactNotFound   = Error{Code: 40008, HTTPstatus: http.StatusNotFound, Err: fmt.Errorf("artifact not found")}

	ErrMarshalingServerJSONFailed = Error{Code: 50001, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("marshaling (server-side) JSON failed")}
	ErrGenericInternalServerError = Error{Code: 50002, HTTPstatus: http.StatusInternalServerError, Err: fmt.Errorf("internal server error")}
)
