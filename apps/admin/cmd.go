package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/tathmini/core/assessment"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	tplSvc assessment.TemplateServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run database migrations (up, down, status, ...)")
	fmt.Println("  archivetemplate -id ID - archive a questionnaire template")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	archiveCmd := flag.NewFlagSet("archivetemplate", flag.ExitOnError)
	archiveID := archiveCmd.String("id", "", "The template's id.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "archivetemplate":
		if err := archiveCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *archiveID == "" {
			archiveCmd.Usage()
			return errHelp
		}
		return cli.archiveTemplate(*archiveID)
	default:
		cli.printUsage()
		return errHelp
	}
}
