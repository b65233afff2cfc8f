package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"buildboard/internal/cmd"
)

func main() {
	// Parse CLI arguments with Kong
	var cli cmd.CLI
	ctx := kong.Parse(&cli,
		kong.Name("buildboard"),
		kong.Description("Backend service for the buildboard dashboard: agent sessions, AI chat, time tracking, image metadata."),
		kong.UsageOnError(),
		kong.Bind(&cli),
	)

	// Execute the selected command
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
