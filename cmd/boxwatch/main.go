package main

import (
	"boxwatch/cmd/boxwatch/commands"
	"boxwatch/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
