// Package main implements scrapectl - the operator CLI to monitor and manage
// a running coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package main

import (
	"fmt"
	"time"

	"github.com/apaz-cli/ao3scraper/coord"
	"github.com/fatih/color"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"
)

const dfltRefresh = 5 * time.Second

var (
	fgreen  = color.New(color.FgGreen).SprintFunc()
	fcyan   = color.New(color.FgCyan).SprintFunc()
	fyellow = color.New(color.FgYellow).SprintFunc()
	fred    = color.New(color.FgRed).SprintFunc()
)

func progressCmd(c *cli.Context) error {
	progress, err := newClient(c).Progress()
	if err != nil {
		return err
	}
	printProgress(progress)
	return nil
}

func printProgress(p *coord.Progress) {
	fmt.Printf("completed:   %s\n", fgreen(humanCount(p.Completed)))
	fmt.Printf("private:     %s\n", fyellow(humanCount(p.Private)))
	fmt.Printf("processed:   %s (%.2f%%)\n", fcyan(humanCount(p.TotalProcessed)), p.ProgressPercent)
	fmt.Printf("remaining:   %s\n", humanCount(p.Remaining))
	fmt.Printf("queue:       %d available\n", p.AvailableQueueSize)
	fmt.Printf("workers:     %d connected\n", p.ConnectedWorkers)
	fmt.Printf("results log: %s\n", humanBytes(p.ResultsFileSize))
	disk := fmt.Sprintf("%d%%", p.DiskUsagePercent)
	if p.DiskUsagePercent >= 90 {
		disk = fred(disk)
	}
	fmt.Printf("disk used:   %s\n", disk)
}

// monitorCmd drives a live progress bar; the decorators render counters and
// percentage, the poll loop feeds it deltas.
func monitorCmd(c *cli.Context) error {
	refresh := c.Duration("refresh")
	if refresh <= 0 {
		refresh = dfltRefresh
	}
	client := newClient(c)

	progress, err := client.Progress()
	if err != nil {
		return err
	}
	total := progress.TotalProcessed + progress.Remaining

	fmt.Printf("%s coordinator at %s, %s IDs total, refresh %v\n",
		fcyan("monitoring"), c.GlobalString("server"), humanCount(total), refresh)

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(total,
		mpb.PrependDecorators(
			decor.Name("processed "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)
	bar.IncrInt64(progress.TotalProcessed)

	last := progress.TotalProcessed
	for {
		time.Sleep(refresh)
		progress, err = client.Progress()
		if err != nil {
			fmt.Println(fred("poll error:"), err)
			continue
		}
		if delta := progress.TotalProcessed - last; delta > 0 {
			bar.IncrInt64(delta)
			last = progress.TotalProcessed
		}
		if progress.Remaining == 0 && progress.AvailableQueueSize == 0 {
			p.Wait()
			fmt.Println(fgreen("scrape complete"))
			printProgress(progress)
			return nil
		}
	}
}

func humanCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func humanBytes(n int64) string {
	const (
		kib = 1024
		mib = kib * 1024
		gib = mib * 1024
	)
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2fGiB", float64(n)/gib)
	case n >= mib:
		return fmt.Sprintf("%.2fMiB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.1fKiB", float64(n)/kib)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
