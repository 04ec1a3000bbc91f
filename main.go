package main

import (
	"os"

	"immo-tracker/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
