// Command recordings manages a library document of folders and recordings.
package main

import (
	"os"

	"github.com/roach88/recordings/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
