package main

import (
	"os"

	"github.com/akomakom/nagios-plugins/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
