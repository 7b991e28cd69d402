package main

import (
	"github.com/OFFIS-RIT/twingraph/internal/server"
	"github.com/OFFIS-RIT/twingraph/internal/util"
	"github.com/OFFIS-RIT/twingraph/pkg/logger"
	"github.com/OFFIS-RIT/twingraph/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleBackend := console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	})
	logger.Init(consoleBackend)

	server.Init()
}
