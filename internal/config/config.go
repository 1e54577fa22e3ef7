/*
Copyright 2024 The Tanuki Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config is a small typed configuration object, modeled on the
// teacher's pkg/jsonconfig.Obj: a map of recognized keys, each read with
// a typed accessor, validated at the end so unrecognized keys are a hard
// error rather than a silently-ignored typo.
package config

import "fmt"

// Obj is a configuration map, analogous to jsonconfig.Obj.
type Obj map[string]interface{}

// Config holds the tuning knobs the core needs. The surrounding host
// (HTTP/GraphQL façade, CLI) is responsible for everything else named in
// spec.md §6 (HOST, PORT, STATIC_FILES, UPLOAD_PATH).
type Config struct {
	// DBPath is the directory holding the KV index database.
	DBPath string
	// AssetsPath is the blob store root.
	AssetsPath string
	// MaxOpenFiles bounds the KV engine's open file descriptors.
	MaxOpenFiles int
	// LogFileRetention is the number of KV log files to retain.
	LogFileRetention int
	// ThumbnailCacheSize is the LRU entry capacity for C6.
	ThumbnailCacheSize int
	// SearchCacheSize is the LRU entry capacity for C7.
	SearchCacheSize int
}

// Defaults matches the defaults named in spec.md §4.2 and §4.6.
func Defaults() Config {
	return Config{
		MaxOpenFiles:       128,
		LogFileRetention:   10,
		ThumbnailCacheSize: 100,
		SearchCacheSize:    2,
	}
}

// FromObj builds a Config from a config.Obj, applying Defaults() for any
// key left unset, the same layered approach jsonconfig.Obj.OptionalInt
// takes with its default-value parameter.
func FromObj(o Obj) (Config, error) {
	c := Defaults()
	if v, ok := o["db_path"]; ok {
		s, ok := v.(string)
		if !ok {
			return c, fmt.Errorf("config: db_path must be a string")
		}
		c.DBPath = s
	}
	if v, ok := o["assets_path"]; ok {
		s, ok := v.(string)
		if !ok {
			return c, fmt.Errorf("config: assets_path must be a string")
		}
		c.AssetsPath = s
	}
	if v, ok := o["max_open_files"]; ok {
		n, err := asInt(v)
		if err != nil {
			return c, fmt.Errorf("config: max_open_files: %w", err)
		}
		c.MaxOpenFiles = n
	}
	if v, ok := o["log_file_retention"]; ok {
		n, err := asInt(v)
		if err != nil {
			return c, fmt.Errorf("config: log_file_retention: %w", err)
		}
		c.LogFileRetention = n
	}
	if v, ok := o["thumbnail_cache_size"]; ok {
		n, err := asInt(v)
		if err != nil {
			return c, fmt.Errorf("config: thumbnail_cache_size: %w", err)
		}
		c.ThumbnailCacheSize = n
	}
	if v, ok := o["search_cache_size"]; ok {
		n, err := asInt(v)
		if err != nil {
			return c, fmt.Errorf("config: search_cache_size: %w", err)
		}
		c.SearchCacheSize = n
	}
	if c.DBPath == "" {
		return c, fmt.Errorf("config: db_path is required")
	}
	if c.AssetsPath == "" {
		return c, fmt.Errorf("config: assets_path is required")
	}
	return c, nil
}

func asInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
