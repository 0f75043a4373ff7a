// Command lsmctl is a thin external client over pkg/lsmkv: it opens a
// database directory, runs one operation, and exits. It is deliberately
// not part of the engine: CLI parsing and process exit codes live here,
// outside internal/lsm.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if exitErr, ok := err.(*exitError); ok {
			if exitErr.msg != "" {
				fmt.Fprintln(os.Stderr, "error:", exitErr.msg)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(3)
	}
}

// exitError carries the process exit code a cobra RunE wants without
// forcing cobra to print its own "Error:" line twice.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func usageErr(format string, args ...interface{}) error {
	return &exitError{code: 2, msg: fmt.Sprintf(format, args...)}
}

func engineErr(err error) error {
	return &exitError{code: 3, msg: err.Error()}
}

func notFoundErr(key string) error {
	return &exitError{code: 1, msg: fmt.Sprintf("key not found: %q", key)}
}

// classify turns an internal error into the right process exit code.
// Every error reaching the CLI boundary is one of dberr's four kinds or
// a config-validation error; none of them are key-not-found, which is
// reported via the bool return of Get instead.
func classify(err error) error {
	if err == nil {
		return nil
	}
	return engineErr(err)
}
