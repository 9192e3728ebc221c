package main

import (
	"github.com/mchmarny/gearpulse/pkg/cli"
)

func main() {
	cli.Execute()
}
