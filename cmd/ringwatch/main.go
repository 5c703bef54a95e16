package main

import (
	"ringwatch/internal/cli"
)

func main() {
	cli.Execute()
}
