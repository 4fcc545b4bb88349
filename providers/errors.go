package providers

import "errors"

// ErrAuthTokenIsRequired is returned if you are trying to use a web
// service without credentials.
var ErrAuthTokenIsRequired = errors.New("user id and license key are required")
