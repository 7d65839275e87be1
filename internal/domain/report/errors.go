package report

import "errors"

var ErrBuildFailed = errors.New("report build failed")
