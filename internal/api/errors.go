package api

import "errors"

// ErrDeviceNotFound is returned when a request names a host the bridge
// group doesn't manage.
var ErrDeviceNotFound = errors.New("api: device not found")
