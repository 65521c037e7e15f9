package features

import "errors"

var ErrNotConfigured = errors.New("features not configured")
