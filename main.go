package main

import (
	"context"
	"os"

	"github.com/YasiruR/walletkit/cli"
	"github.com/tryfix/log"
)

func main() {
	args, opts, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	c, err := initContainer(args, cli.RequiredKeys(opts.Command))
	if err != nil {
		log.Fatal(err)
	}

	if err = cli.Run(context.Background(), c, opts, os.Stdout); err != nil {
		c.Log.Fatal(`walletkit`, err)
	}
}
