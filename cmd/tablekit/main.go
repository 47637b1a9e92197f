// Command tablekit reflects live database schemas, renders dialect DDL,
// serves the schema API, and archives snapshots to object storage.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
