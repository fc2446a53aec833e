// Package main is the archiver: it watches the coordinator's live results log
// and, past a size threshold, rotates it, transfers the compressed segment,
// and asks the coordinator to clean up.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package main

import (
	"flag"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/apaz-cli/ao3scraper/api"
	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
)

const checkInterval = time.Minute

const gib = 1024 * 1024 * 1024

type archiver struct {
	client     *api.Client
	serverHost string
	localDir   string
	threshold  int64 // bytes
}

func main() {
	var (
		server    = flag.String("server", "", "coordinator IP address (required)")
		port      = flag.Int("port", 8000, "coordinator port")
		threshold = flag.Int64("threshold", 10, "rotation threshold, GiB")
		localDir  = flag.String("local-dir", "./downloads", "local directory for fetched segments")
	)
	nlog.InitFlags(flag.CommandLine)
	flag.Parse()

	if *server == "" {
		cos.ExitLogf("Missing -server (coordinator address)")
	}
	if err := cos.CreateDir(*localDir); err != nil {
		cos.ExitLogf("Failed to create local dir %q: %v", *localDir, err)
	}

	a := &archiver{
		client:     api.NewClient(fmt.Sprintf("http://%s:%d", *server, *port)),
		serverHost: *server,
		localDir:   *localDir,
		threshold:  *threshold * gib,
	}
	nlog.Infof("archiver: watching %s:%d, threshold %dGiB, every %v", *server, *port, *threshold, checkInterval)

	for {
		if err := a.runCycle(); err != nil {
			nlog.Errorf("cycle: %v", err)
		}
		time.Sleep(checkInterval)
	}
}

// runCycle checks the live log size and, when above threshold, performs one
// rotate-transfer-cleanup round. A failed transfer leaves the segment on the
// server; later rounds do not retry it.
func (a *archiver) runCycle() error {
	fstatus, err := a.client.GetFileStatus()
	if err != nil {
		return err
	}
	nlog.Infof("results log: %.2f GiB", float64(fstatus.ResultsFileSize)/gib)
	if fstatus.ResultsFileSize < a.threshold {
		return nil
	}

	res, err := a.client.RotateFile()
	if err != nil {
		return err
	}
	if len(res.RotatedFile) == 0 {
		return fmt.Errorf("rotation returned no segment: %+v", res)
	}
	gzName := res.RotatedFile[len(res.RotatedFile)-1]
	nlog.Infof("rotated to %s, transferring", gzName)

	if err := a.transfer(gzName, res.CompressedPath); err != nil {
		nlog.Errorf("transfer failed, keeping %s on server: %v", gzName, err)
		return err
	}
	msg, err := a.client.CleanupFile(gzName)
	if err != nil {
		return err
	}
	nlog.Infof("cleanup: %s", msg)
	return nil
}

func (a *archiver) transfer(name, remotePath string) error {
	var (
		remote = a.serverHost + ":" + remotePath
		local  = filepath.Join(a.localDir, name)
	)
	out, err := exec.Command("rsync", "-v", remote, local).CombinedOutput()
	if err != nil {
		return fmt.Errorf("rsync: %v: %s", err, out)
	}
	return nil
}
