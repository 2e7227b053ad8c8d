package main

import (
	"github.com/vishvavidya/traininghub/storage/database"
)

var gooseRunFunc = database.RunMigration // mockable

// migrate runs a goose command such as "up" or "down-to 3" against the embedded migrations.
func (cli *commandLine) migrate(args []string) error {
	command, rest := args[0], args[1:]
	return gooseRunFunc(cli.db, command, rest...)
}
