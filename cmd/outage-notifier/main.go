package main

import (
	// Europe/Athens must resolve in scratch images
	_ "time/tzdata"

	"github.com/gridwatch/outage-notifier/cmd/outage-notifier/cmd"
)

func main() {
	cmd.Execute()
}
