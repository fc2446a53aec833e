// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/fname"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/stats"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// rotateSettle is a fixed pause between the rename and the compression of the
// segment.
const rotateSettle = time.Second

type RotateResult struct {
	Status         string   `json:"status"`
	RotatedFile    []string `json:"rotated_file"` // [name, name.gz]
	CompressedPath string   `json:"compressed_path"`
}

// Rotate renames the live results log to the first free numbered segment and
// compresses the segment alongside. The live log is recreated lazily on the
// next append.
func (m *Manager) Rotate() (*RotateResult, error) {
	m.mu.Lock()
	var k int
	for ; cos.FileExists(m.config.RotatedPath(k)); k++ {
	}
	rotatedPath := m.config.RotatedPath(k)
	if err := os.Rename(m.config.ResultsPath(), rotatedPath); err != nil {
		m.mu.Unlock()
		return nil, errors.Wrap(err, "rotate results log")
	}
	m.store.resultsLog.detach()
	m.mu.Unlock()

	// appends hold m.mu and the old handle was detached before unlocking, so
	// no append reaches the renamed file; this is a fixed settle delay
	time.Sleep(rotateSettle)

	gzPath, err := gzipFile(rotatedPath)
	if err != nil {
		return nil, err
	}
	m.tstats.Inc(stats.RotateCount)
	nlog.Infof("rotated %s -> %s (+ %s)", fname.Results, filepath.Base(rotatedPath), filepath.Base(gzPath))
	return &RotateResult{
		Status:         "success",
		RotatedFile:    []string{filepath.Base(rotatedPath), filepath.Base(gzPath)},
		CompressedPath: gzPath,
	}, nil
}

// gzipFile compresses src to src.gz, keeping the original, and returns the
// absolute path of the compressed file.
func gzipFile(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", errors.Wrapf(err, "open %q", src)
	}
	defer cos.Close(in)

	gzPath := src + fname.GzSuffix
	out, err := cos.CreateFile(gzPath)
	if err != nil {
		return "", errors.Wrapf(err, "create %q", gzPath)
	}
	gzw := gzip.NewWriter(out)
	if _, err = io.Copy(gzw, in); err == nil {
		err = gzw.Close()
	} else {
		gzw.Close()
	}
	if err == nil {
		err = out.Close()
	} else {
		out.Close()
	}
	if err != nil {
		os.Remove(gzPath)
		return "", errors.Wrapf(err, "compress %q", src)
	}
	abs, err := filepath.Abs(gzPath)
	if err != nil {
		return gzPath, nil
	}
	return abs, nil
}

// Cleanup removes one transferred segment from the output directory. Only
// basenames ending in .gz are accepted - the path must not escape the output
// directory.
func (m *Manager) Cleanup(filename string) error {
	if filename == "" || filepath.Base(filename) != filename ||
		strings.Contains(filename, "..") {
		return cos.NewErrUnsafeName(filename, "must be a plain basename")
	}
	if !strings.HasSuffix(filename, fname.GzSuffix) {
		return cos.NewErrUnsafeName(filename, "only "+fname.GzSuffix+" segments may be removed")
	}
	fqn := filepath.Join(m.config.OutputDir, filename)
	if !cos.FileExists(fqn) {
		return cos.NewErrNotFound("file %q", fqn)
	}
	if err := os.Remove(fqn); err != nil {
		return errors.Wrapf(err, "remove %q", fqn)
	}
	nlog.Infof("cleaned up %s", fqn)
	return nil
}
