package main

import (
	"os"

	"github.com/joho/godotenv"

	linercmder "github.com/papercomputeco/liner/cmd/liner"
)

func main() {
	// A local .env can carry LINER_* variables and provider API keys.
	_ = godotenv.Load()

	cmd := linercmder.NewLinerCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
