package main

import (
	"log/slog"

	"odistats/cmd/odistats/commands"
	"odistats/lib/osutil"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}

	ctx, stop := osutil.SignalContext()
	defer stop()

	commands.ExecuteContext(ctx)
}
