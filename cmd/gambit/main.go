// gambit is the planning CLI: plan, validate, analyze, simulate, serve.
//
// Usage:
//
//	gambit plan     --library lib.yaml --world world.yaml [--goal name]
//	gambit validate --library lib.yaml [--strict]
//	gambit analyze  --library lib.yaml --plan a,b,c [--history hist.json]
//	gambit simulate --library lib.yaml --world world.yaml [--frames N] [--replays K] [--agents M]
//	gambit serve    [--db path]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
