package main

import (
	"log"
	"os"

	"github.com/ggonzalez94/onchain-agent/internal/app"
)

func main() {
	log.SetFlags(0)
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
