// Command clubctl is the operator CLI: wallet backfill, member import and
// schema migrations.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], newEnv(os.Stdout, os.Stderr)))
}
