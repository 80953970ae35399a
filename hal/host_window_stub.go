//go:build !tinygo && !cgo

package hal

import (
	"context"
	"errors"
)

func RunWindow(context.Context, HostConfig, NewApp) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
