/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template. Status carries the
HTTP status that best describes the failure; the local viewer uses it verbatim.
*/
package errs

import "net/http"

// errorMap stores the CustomError template of every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid parameters.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Malformed JSON payload."},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "File is larger than %d bytes.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many messages. Please slow down.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Connection and Protocol Errors
	ErrProtocolDecode:        {Code: ErrProtocolDecode, Message: "Received a malformed frame from the server."},
	ErrNotConnected:          {Code: ErrNotConnected, Message: "You are offline. Message not sent."},
	ErrSendQueueFull:         {Code: ErrSendQueueFull, Message: "Connection is busy. Message not sent."},
	ErrSessionStopped:        {Code: ErrSessionStopped, Message: "Chat session is closed."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is longer than %d bytes."},

	// 3xxx: Identity Errors
	ErrIdentityStore: {Code: ErrIdentityStore, Message: "Could not load or save your username."},

	// 4xxx: File Store Errors
	ErrFileListFailed:     {Code: ErrFileListFailed, Message: "Could not fetch the uploaded files.", Status: http.StatusBadGateway},
	ErrFileUploadFailed:   {Code: ErrFileUploadFailed, Message: "File upload failed.", Status: http.StatusBadGateway},
	ErrFileDownloadFailed: {Code: ErrFileDownloadFailed, Message: "File download failed.", Status: http.StatusBadGateway},
	ErrFileNotFound:       {Code: ErrFileNotFound, Message: "File %q not found.", Status: http.StatusNotFound},
	ErrFileStorageFailed:  {Code: ErrFileStorageFailed, Message: "Could not store the downloaded file."},

	// 5xxx: Internal Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
