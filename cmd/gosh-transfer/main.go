// Gosh Transfer - LAN file transfer between your own devices
package main

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/cli"
)

// Version information, overridden at build time via -ldflags.
var (
	Version   = "v1.0.0"
	BuildTime = "unknown"
)

func main() {
	cli.Version = Version
	cli.BuildTime = BuildTime
	cli.Execute()
}
