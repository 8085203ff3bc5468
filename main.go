/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/gamex/engine"
	"github.com/spaghettifunk/gamex/engine/core"
	"github.com/spaghettifunk/gamex/testbed"
)

func main() {
	settingsPath := flag.String("settings", "settings.toml", "path to the application settings")
	flag.Parse()

	settings, err := engine.LoadSettings(*settingsPath)
	if err != nil {
		core.LogFatal("failed to load settings: %s", err)
	}

	tb := testbed.NewTestGame()

	app, err := engine.New(settings, tb)
	if err != nil {
		core.LogFatal("failed to create application: %s", err)
	}
	tb.Attach(app)

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	go func() {
		<-sigCh
		core.LogInfo("signal received, closing window")
		app.RequestClose()
	}()

	if err := app.Run(); err != nil {
		core.LogFatal("application terminated with error: %s", err)
	}
}
