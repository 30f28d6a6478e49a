// Package utils provides small helpers shared across the application:
// type-safe context keys, HTTP response writing, JWT token generation and
// validation, and UUID generation.
package utils

import "context"

// contextKey is a private type for context keys, preventing collisions with
// string-based keys from other packages.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey stores the authenticated user's id in a request context.
var UserIDCtxKey = contextKey("userID")

// DeviceIDCtxKey stores the calling device's id in a request context, taken
// from the X-Device-ID header by the auth middleware.
var DeviceIDCtxKey = contextKey("deviceID")

// GetUserIDFromContext retrieves the user id from ctx. ok is false when the
// value is missing or has an unexpected type.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

// GetDeviceIDFromContext retrieves the device id from ctx.
func GetDeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDCtxKey).(string)
	return deviceID, ok
}
