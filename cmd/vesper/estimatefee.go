package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var estimatefee = cli.Command{
	Name:   "estimatefee",
	Usage:  "show the current fee rates per priority in sat/vByte",
	Action: estimateFeeAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func estimateFeeAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	rates := svc.sendSvc.EstimateFees(context.Background())

	printRespJSON(map[string]uint64{
		"slow":   rates.Slow,
		"normal": rates.Normal,
		"fast":   rates.Fast,
		"urgent": rates.Urgent,
	})

	return nil
}
