//go:build tinygo && baremetal

package main

import (
	"tachomatrix/app"
	"tachomatrix/hal"
)

func main() {
	app.Run(hal.New(), app.DefaultConfig())
}
