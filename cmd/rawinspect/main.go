// RawInspect - Mass spectrometry run inspection tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/RawInspect/cmd/rawinspect/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
