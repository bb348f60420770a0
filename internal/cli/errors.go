// Package cli provides error handling utilities for CLI output.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	caskerrors "github.com/caskhq/cask/internal/errors"
)

// PrintError prints an error to stderr with appropriate formatting.
// If the error is a CaskError, it uses the user-friendly format.
// Otherwise, it prints a simple error message.
func PrintError(err error) {
	caskErr := caskerrors.AsCaskError(err)

	if jsonOut {
		var data []byte
		if caskErr != nil {
			data, _ = json.Marshal(caskErr)
		} else {
			data, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	if caskErr != nil {
		fmt.Fprintln(os.Stderr, caskErr.UserMessage())
		if verbose {
			// In verbose mode, also print the error code and cause
			fmt.Fprintf(os.Stderr, "\nCode: %s\n", caskErr.Code)
			if caskErr.Cause != nil {
				fmt.Fprintf(os.Stderr, "Cause: %v\n", caskErr.Cause)
			}
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// errNotInitialized tells the user to run init first.
func errNotInitialized() error {
	return fmt.Errorf("no cask project found. Run 'cask init' first")
}
