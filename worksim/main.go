// Package main is the entry point of the worksim command.
package main

import (
	"github.com/sarchlab/worksim/worksim/cmd"
	"github.com/tebeka/atexit"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
