// Copyright 2025 The TrieServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the trieserve IPC server and its debugging REPL.

trieserve indexes documents by the prefixes of their fields and answers multi-word,
multi-phrase prefix searches. It can operate as a MessagePack IPC server over
stdin/stdout, or as an interactive REPL for testing.

# Usage

Serve a seed file over IPC, exposing Prometheus metrics:

	trieserve serve --data docs.jsonl --metrics-addr :9464

Explore the same data interactively:

	trieserve repl --data docs.jsonl -d

Show or rebuild the config file:

	trieserve config
	trieserve config --rebuild

# Configuration

Runtime configuration lives in a TOML (or YAML) file, created with defaults if missing:

	[trie]
	fields = ["text"]
	index_field = "id"
	min = 1
	ignore_case = true
	split_on = '\s'
	tokenizer = "chars"

	[server]
	max_limit = 64
	max_phrases = 16
	metrics_addr = ""

	[cli]
	default_limit = 24

# Seed files

Plain text files hold one document per line, stored under --text-field. JSON arrays,
JSON lines and MessagePack streams hold whole documents. Documents without a value in
the index field receive sequential ids.
*/
package main

import (
	"os"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0"
	AppName = "trieserve"
	gh      = "https://github.com/bastiangx/trieserve"
)

func main() {
	if err := Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
