// sqltrim writes cleaned copies of SQL dumps.
package main

import (
	"os"

	"github.com/danielsiegl/sqltrim/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
