// Command ecsrt inspects addon configurations and drives worlds built from
// them.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
