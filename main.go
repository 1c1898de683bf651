package main

import (
	"log"
	"os"

	"github.com/mitchellh/cli"
	"github.com/yusufsyaifudin/versi/cmd/migrate"
)

func main() {
	const appName, appVersion = "versi", "1.0.0"

	upCmd := migrate.NewCmd(migrate.ActionUp)

	c := cli.NewCLI(appName, appVersion)
	c.Args = os.Args[1:]
	c.Autocomplete = true
	c.Commands = map[string]cli.CommandFactory{
		"bootstrap": migrate.NewCmd(migrate.ActionBootstrap),
		"up":        upCmd,
		"current":   migrate.NewCmd(migrate.ActionCurrent),
		"status":    migrate.NewCmd(migrate.ActionStatus),
		"verify":    migrate.NewCmd(migrate.ActionVerify),
	}

	exitStatus, err := c.Run()
	if err != nil {
		log.Println(err)
	}

	os.Exit(exitStatus)
}
