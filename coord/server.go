// Package coord implements the work-dispatch coordinator.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package coord

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/apaz-cli/ao3scraper/cmn/cos"
	"github.com/apaz-cli/ao3scraper/cmn/nlog"
	"github.com/apaz-cli/ao3scraper/stats"
	jsoniter "github.com/json-iterator/go"
)

const dfltBatchSize = 100

type (
	// Server is the thin adapter between the HTTP surface and the Manager.
	Server struct {
		config *Config
		mgr    *Manager
		hsrv   *http.Server

		// invoked by every /shutdown request after the response is
		// written; the owner decides how the process terminates
		shutdownFn func()
	}

	statusResp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	workBatchResp struct {
		WorkIDs []int64 `json:"work_ids"`
	}
	fileStatusResp struct {
		ResultsFileSize int64  `json:"results_file_size"`
		ResultsFilePath string `json:"results_file_path"`
	}
)

func NewServer(config *Config, mgr *Manager, tstats *stats.Tracker, shutdownFn func()) *Server {
	s := &Server{config: config, mgr: mgr, shutdownFn: shutdownFn}

	mux := http.NewServeMux()
	mux.HandleFunc("/work-batch", s.workBatchHdlr)
	mux.HandleFunc("/work-completed", s.workCompletedHdlr)
	mux.HandleFunc("/work-private", s.workPrivateHdlr)
	mux.HandleFunc("/progress", s.progressHdlr)
	mux.HandleFunc("/file-status", s.fileStatusHdlr)
	mux.HandleFunc("/rotate-file", s.rotateHdlr)
	mux.HandleFunc("/cleanup-file", s.cleanupHdlr)
	mux.HandleFunc("/shutdown", s.shutdownHdlr)
	mux.Handle("/metrics", tstats.Handler())

	s.hsrv = &http.Server{Addr: config.Addr(), Handler: mux}
	return s
}

// Handler exposes the mux (tests).
func (s *Server) Handler() http.Handler { return s.hsrv.Handler }

// Run serves until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		nlog.Infof("listening on %s", s.hsrv.Addr)
		errCh <- s.hsrv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.hsrv.Shutdown(shutCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

//
// handlers
//

func (s *Server) workBatchHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	batchSize := dfltBatchSize
	if raw := r.URL.Query().Get("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, fmt.Sprintf("invalid batch_size %q", raw))
			return
		}
		batchSize = n
	}
	ids := s.mgr.GetBatch(batchSize, clientAddr(r))
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, workBatchResp{WorkIDs: ids})
}

func (s *Server) workCompletedHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var rec WorkRecord
	if err := jsoniter.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeErr(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}
	id, err := rec.WorkID()
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.mgr.SubmitCompleted(&rec); err != nil {
		writeErr(w, http.StatusInternalServerError, "error saving work: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResp{
		Status:  "success",
		Message: fmt.Sprintf("Work %d saved successfully", id),
	})
}

func (s *Server) workPrivateHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	raw := r.URL.Query().Get("work_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeErr(w, http.StatusBadRequest, fmt.Sprintf("invalid work_id %q", raw))
		return
	}
	if err := s.mgr.SubmitPrivate(id); err != nil {
		writeErr(w, http.StatusInternalServerError, "error saving work: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResp{
		Status:  "success",
		Message: fmt.Sprintf("Work %d marked as private", id),
	})
}

func (s *Server) progressHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	writeJSON(w, http.StatusOK, s.mgr.Progress())
}

func (s *Server) fileStatusHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	size, path := s.mgr.FileStatus()
	writeJSON(w, http.StatusOK, fileStatusResp{ResultsFileSize: size, ResultsFilePath: path})
}

func (s *Server) rotateHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	res, err := s.mgr.Rotate()
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "rotation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) cleanupHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	filename := r.URL.Query().Get("filename")
	err := s.mgr.Cleanup(filename)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, statusResp{
			Status:  "success",
			Message: fmt.Sprintf("File %s removed", filename),
		})
	case cos.IsErrUnsafeName(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	case cos.IsErrNotFound(err):
		writeErr(w, http.StatusNotFound, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) shutdownHdlr(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	writeJSON(w, http.StatusOK, statusResp{Status: "success", Message: "Server shutting down"})
	nlog.Infoln("shutdown requested")
	if s.shutdownFn != nil {
		go s.shutdownFn()
	}
}

//
// helpers
//

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(cos.MustMarshal(v))
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	if code >= http.StatusInternalServerError {
		nlog.Errorln(msg)
	}
	writeJSON(w, code, statusResp{Status: "error", Message: msg})
}
