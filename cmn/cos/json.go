// Package cos provides common low-level types and utilities for the ao3scraper projects
/*
 * Copyright (c) 2025, AO3Scraper Authors. All rights reserved.
 */
package cos

import (
	jsoniter "github.com/json-iterator/go"
)

func MustMarshal(v any) []byte {
	b, err := jsoniter.Marshal(v)
	if err != nil {
		Exitf("json marshal %T: %v", v, err)
	}
	return b
}

func MarshalToString(v any) string {
	s, err := jsoniter.MarshalToString(v)
	if err != nil {
		Exitf("json marshal %T: %v", v, err)
	}
	return s
}
