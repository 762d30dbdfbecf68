// Command schematic renders, validates and moves schematic snapshots
// without a server.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
