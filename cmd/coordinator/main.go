// Package main is the coordinator daemon: the authoritative work-dispatch
// server of the scraping swarm.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/mono"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/coord"
	"github.com/apaz-cli/ao3scraper/hk"
	"github.com/apaz-cli/ao3scraper/stats"
	"golang.org/x/sync/errgroup"
)

var (
	build     string
	buildtime string
)

func main() {
	var (
		config coord.Config
		logDir string
	)
	flag.StringVar(&config.OutputDir, "output", "output", "output directory")
	flag.Int64Var(&config.StartID, "start-id", coord.DfltStartID, "starting work ID")
	flag.Int64Var(&config.EndID, "end-id", coord.DfltEndID, "ending work ID (inclusive)")
	flag.StringVar(&config.Host, "host", "0.0.0.0", "host to bind to")
	flag.IntVar(&config.Port, "port", coord.DfltPort, "port to bind to")
	flag.StringVar(&logDir, "log-dir", "", "log directory (default: stderr only)")
	nlog.InitFlags(flag.CommandLine)
	flag.Parse()

	if logDir != "" {
		nlog.SetLogDirRole(logDir, "coordinator")
	}
	cos.InitShortID(uint64(mono.NanoTime()))
	runID := cos.GenUUID()
	nlog.Infof("coordinator %s starting (build %s %s)", runID, build, buildtime)
	nlog.Infof("output %q, ID range [%d, %d]", config.OutputDir, config.StartID, config.EndID)

	tstats := stats.NewTracker(runID)
	mgr, err := coord.NewManager(&config, tstats, runID)
	if err != nil {
		cos.ExitLogf("Failed to init manager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	installSignalHandler(cancel)

	hk.Init()
	hk.Reg("logflush"+hk.NameSuffix, logFlush, time.Minute)

	srv := coord.NewServer(&config, mgr, tstats, cancel)
	group, gctx := errgroup.WithContext(ctx)
	group.Go(hkRun(gctx))
	group.Go(func() error { return mgr.Run(gctx) })
	group.Go(func() error { return srv.Run(gctx) })

	err = group.Wait()
	nlog.Flush(nlog.ActExit)
	if err != nil {
		cos.ExitLogf("Server failed: %v", err)
	}
	os.Exit(0)
}

func hkRun(ctx context.Context) func() error {
	return func() error {
		go func() {
			<-ctx.Done()
			hk.Stop()
		}()
		hk.DefaultHK.Run()
		return nil
	}
}

func logFlush() time.Duration {
	nlog.Flush(nlog.ActNone)
	return time.Minute
}

func installSignalHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		nlog.Infof("received %v, shutting down", sig)
		cancel()
	}()
}
