// Package main implements scrapectl - the operator CLI to monitor and manage
// a running coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package main

import (
	"fmt"
	"os"

	"github.com/apaz-cli/ao3scraper/api"
	"github.com/urfave/cli"
)

const cliName = "scrapectl"

var (
	serverFlag = cli.StringFlag{
		Name:  "server",
		Value: "localhost",
		Usage: "coordinator address",
	}
	portFlag = cli.IntFlag{
		Name:  "port",
		Value: 8000,
		Usage: "coordinator port",
	}
	refreshFlag = cli.DurationFlag{
		Name:  "refresh",
		Value: 0,
		Usage: "refresh interval (see command defaults)",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = cliName
	app.Usage = "monitor and manage a running scrape coordinator"
	app.Flags = []cli.Flag{serverFlag, portFlag}
	app.Commands = []cli.Command{
		{
			Name:   "progress",
			Usage:  "print a one-shot progress summary",
			Action: progressCmd,
		},
		{
			Name:   "monitor",
			Usage:  "live progress dashboard",
			Flags:  []cli.Flag{refreshFlag},
			Action: monitorCmd,
		},
		{
			Name:   "shutdown",
			Usage:  "gracefully terminate the coordinator",
			Action: shutdownCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(c *cli.Context) *api.Client {
	var (
		server = c.GlobalString("server")
		port   = c.GlobalInt("port")
	)
	return api.NewClient(fmt.Sprintf("http://%s:%d", server, port))
}

func shutdownCmd(c *cli.Context) error {
	msg, err := newClient(c).Shutdown()
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}
