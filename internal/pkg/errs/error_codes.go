/*
Package errs provides custom error types and application-level error code constants.

These codes identify the failures the chat client can observe: bad input,
protocol violations from the server, identity storage problems and file store
errors.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that an argument failed validation.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a JSON payload could not be decoded.
	ErrInvalidJSONFormat = 1003

	// ErrRequestEntityTooLarge indicates that an upload exceeds the client side size cap.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that outbound messages are sent faster than allowed.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Connection and Protocol Errors
const (
	// ErrProtocolDecode indicates that an inbound frame is not a valid JSON envelope.
	ErrProtocolDecode = 2001

	// ErrNotConnected indicates that a message was sent while no connection was open.
	ErrNotConnected = 2002

	// ErrSendQueueFull indicates that the connection writer could not keep up.
	ErrSendQueueFull = 2003

	// ErrSessionStopped indicates that the session was already stopped.
	ErrSessionStopped = 2004

	// ErrMessageContentTooLong indicates that the outbound message exceeds the length limit.
	ErrMessageContentTooLong = 2201
)

// 3xxx: Identity Errors
const (
	// ErrIdentityStore indicates that the identity could not be read or persisted.
	ErrIdentityStore = 3001
)

// 4xxx: File Store Errors
const (
	// ErrFileListFailed indicates that the uploaded files listing could not be fetched.
	ErrFileListFailed = 4001

	// ErrFileUploadFailed indicates that the server rejected or failed an upload.
	ErrFileUploadFailed = 4002

	// ErrFileDownloadFailed indicates that a download could not be completed.
	ErrFileDownloadFailed = 4003

	// ErrFileNotFound indicates that the requested file does not exist on the server.
	ErrFileNotFound = 4004

	// ErrFileStorageFailed indicates that a downloaded file could not be written to its destination.
	ErrFileStorageFailed = 4005
)

// 5xxx: Internal Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
