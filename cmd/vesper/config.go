package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
)

var passwordFlag = cli.StringFlag{
	Name:     "password",
	Usage:    "the password unlocking the encrypted wallet state",
	Required: true,
}

var configCmd = cli.Command{
	Name:   "config",
	Usage:  "Print local configuration of the vesper CLI",
	Action: configAction,
	Subcommands: []*cli.Command{
		{
			Name:   "set",
			Usage:  "set a <key> <value> in the local state",
			Action: configSetAction,
		},
	},
}

func configAction(ctx *cli.Context) error {
	state, err := getState()
	if err != nil {
		return err
	}

	for key, value := range state {
		// seed material is never echoed back, not even encrypted
		if key == "encrypted_mnemonic" {
			value = "<encrypted>"
		}
		fmt.Println(key + ": " + value)
	}

	return nil
}

func configSetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return errors.New("key and value are missing")
	}

	key := c.Args().Get(0)
	value := c.Args().Get(1)

	if err := setState(map[string]string{key: value}); err != nil {
		return err
	}

	fmt.Printf("%s %s has been set\n", key, value)

	return nil
}
