// Command obstgarten solves and simulates the orchard game.
//
//	obstgarten solve --fruit 10 --raven 9 --basket 2 --strategy positive
//	obstgarten simulate --strategy random --trials 100000
//	obstgarten compare --fruit 4 --raven 4
package main

import (
	"fmt"
	"os"
)

const (
	exitSuccess = 0
	exitError   = 1
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitError)
	}
	os.Exit(exitSuccess)
}
