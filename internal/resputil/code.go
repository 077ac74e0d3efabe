package resputil

type ErrorCode int

const (
	OK ErrorCode = 0

	// General
	InvalidRequest ErrorCode = 40001

	// Token
	TokenExpired ErrorCode = 40101
	TokenInvalid ErrorCode = 40102

	// Login
	InvalidCredentials ErrorCode = 40103
	UserInactive       ErrorCode = 40104

	// User is not allowed to access the resource
	UserNotAllowed ErrorCode = 40301

	// User is not a member of the requested project
	NotProjectMember ErrorCode = 40302

	// Referenced entity absent or soft-deleted
	NotFound ErrorCode = 40401

	// Persistence or query failure; must never be reported as a denial
	InternalError ErrorCode = 50001

	// Indicates laziness of the developer
	// Frontend will directly print the message without any translation
	NotSpecified ErrorCode = 99999
)
