// Command wxverify runs one weather verification from the terminal and prints
// or saves the report.
//
// Usage:
//
//	go run ./cmd/wxverify report --place London --date 2024-05-01
//	go run ./cmd/wxverify report --place "New York" --date 2023-12-24 --format json --out reports/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
