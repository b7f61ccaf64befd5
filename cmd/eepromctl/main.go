// cmd/eepromctl/main.go
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "eepromctl: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to a process exit status.
// Errors exposing a code (driver and index errors) keep it; anything else is 1.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	type coder interface{ Code() uint16 }

	var c coder
	if errors.As(err, &c) {
		if code := int(c.Code()); code > 0 && code < 126 {
			return code
		}
	}
	return 1
}
