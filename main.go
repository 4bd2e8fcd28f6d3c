package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/stati/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the stati command-line application, cancelling running
// indicators on interrupt.
func main() {
	executionContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.ExecuteContext(executionContext)
	stopSignals()
	if executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
