package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errReportFailed) {
			fmt.Fprintf(os.Stderr, "lingo: %v\n", err)
		}
		os.Exit(1)
	}
}
