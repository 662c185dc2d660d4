package util

import (
	"context"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
WaitForSecondsCtx sleeps for the given (fractional) number of seconds or until
ctx is done.

It returns ctx.Err() if the wait was cut short, nil otherwise.
*/
func WaitForSecondsCtx(ctx context.Context, seconds float64) error {
	tl.Log(tl.Debug1, palette.CyanDim, "Waiting for '%.2f' seconds", seconds)
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
