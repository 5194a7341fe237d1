package main

import (
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	setVersionInfo(version, commit)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
