// Command snapcheck inspects and maintains snapshot reference stores.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/snapcheck/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
