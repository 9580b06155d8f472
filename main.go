package main

import (
	"log"

	"github.com/opencnc/stepcore/cli"
)

func main() {
	log.SetFlags(0)
	cli.Execute()
}
