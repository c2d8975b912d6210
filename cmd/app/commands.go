package main

import (
	"github.com/urfave/cli/v3"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getSeedCommands()...)
	return cmds
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func principalFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "principal",
		Aliases:  []string{"p"},
		Required: true,
		Usage:    "Principal that owns the seed",
	}
}
