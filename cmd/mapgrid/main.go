// Command mapgrid browses paginated data grids and GeoJSON feature maps
// served by a REST API.
package main

import (
	"errors"
	"os"

	"github.com/rshade/mapgrid/internal/cli"
	"github.com/rshade/mapgrid/internal/cli/pagination"
	"github.com/rshade/mapgrid/internal/grid"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func run() error {
	return cli.NewRootCmd(version).Execute()
}

// exitCode maps a command error to the process exit status. Errors caused by
// bad arguments exit with exitUsage.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	usage := []error{
		cli.ErrUnknownGrid,
		cli.ErrUnknownColumn,
		cli.ErrUnsupportedFormat,
		cli.ErrInteractiveFormat,
		cli.ErrNotSearchable,
		cli.ErrNotFilterable,
		grid.ErrInvalidFilter,
		pagination.ErrInvalidPage,
		pagination.ErrInvalidPerPage,
		pagination.ErrInvalidSortFormat,
		pagination.ErrInvalidSortOrder,
		pagination.ErrSortNotAllowed,
	}
	for _, target := range usage {
		if errors.Is(err, target) {
			return exitUsage
		}
	}
	return exitError
}

func main() {
	// cobra has already printed the error.
	if err := run(); err != nil {
		os.Exit(exitCode(err))
	}
}
