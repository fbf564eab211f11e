package main

import (
	"fmt"
	"os"

	"wallpaper-tools/internal/app"
	"wallpaper-tools/internal/cli"
)

func main() {
	if err := cli.NewSwitchCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(app.ExitCode(err))
	}
}
