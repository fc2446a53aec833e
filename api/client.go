// Package api provides a typed Go client for every coordinator endpoint; it is
// used by the archiver, scrapectl, and the test suites.
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apaz-cli/ao3scraper/coord"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type (
	Client struct {
		base string
		hc   *http.Client
	}

	statusResp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	workBatchResp struct {
		WorkIDs []int64 `json:"work_ids"`
	}
	// FileStatus mirrors the /file-status response.
	FileStatus struct {
		ResultsFileSize int64  `json:"results_file_size"`
		ResultsFilePath string `json:"results_file_path"`
	}
)

func NewClient(baseURL string) *Client {
	return &Client{
		base: baseURL,
		hc:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *Client) WorkBatch(batchSize int) ([]int64, error) {
	q := url.Values{"batch_size": []string{strconv.Itoa(batchSize)}}
	var out workBatchResp
	if err := c.call(http.MethodGet, "/work-batch", q, nil, &out); err != nil {
		return nil, err
	}
	return out.WorkIDs, nil
}

func (c *Client) SubmitCompleted(rec *coord.WorkRecord) error {
	body, err := jsoniter.Marshal(rec)
	if err != nil {
		return err
	}
	return c.call(http.MethodPost, "/work-completed", nil, body, nil)
}

func (c *Client) SubmitPrivate(workID int64) error {
	q := url.Values{"work_id": []string{strconv.FormatInt(workID, 10)}}
	return c.call(http.MethodPost, "/work-private", q, nil, nil)
}

func (c *Client) Progress() (*coord.Progress, error) {
	out := &coord.Progress{}
	if err := c.call(http.MethodGet, "/progress", nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetFileStatus() (*FileStatus, error) {
	out := &FileStatus{}
	if err := c.call(http.MethodGet, "/file-status", nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RotateFile() (*coord.RotateResult, error) {
	out := &coord.RotateResult{}
	if err := c.call(http.MethodPost, "/rotate-file", nil, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CleanupFile(filename string) (string, error) {
	q := url.Values{"filename": []string{filename}}
	var out statusResp
	if err := c.call(http.MethodPost, "/cleanup-file", q, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) Shutdown() (string, error) {
	var out statusResp
	if err := c.call(http.MethodPost, "/shutdown", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) call(method, path string, query url.Values, body []byte, out any) error {
	reqURL := c.base + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	var rbody io.Reader
	if body != nil {
		rbody = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, reqURL, rbody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var sr statusResp
		if err := jsoniter.NewDecoder(resp.Body).Decode(&sr); err == nil && sr.Message != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, sr.Message, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return jsoniter.NewDecoder(resp.Body).Decode(out)
}
