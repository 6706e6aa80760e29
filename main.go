// main is the entry point for the sizeup CLI.
package main

import (
	"github.com/huangsam/sizeup/cmd"
	"github.com/huangsam/sizeup/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("sizeup", err)
	}
}
