package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
ride-dispatch coordinates matching of ride requests to drivers.

Usage:
  dispatch -mode <mode> [-config-path config.yaml]

Modes:
  api              ride lifecycle HTTP API (passenger/driver/internal surface)
  dispatch-worker  consumes ride.requested, matches rides to drivers
  notify-worker    consumes notifications, delivers to users

Configuration is read from the yaml file, overridable by environment
variables (see config.Config tags).
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
