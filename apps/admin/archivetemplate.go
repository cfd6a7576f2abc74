package main

import "context"

func (cli *commandLine) archiveTemplate(id string) error {
	if err := cli.tplSvc.Archive(context.Background(), id); err != nil {
		return err
	}
	logger.Printf("template %s archived\n", id)
	return nil
}
