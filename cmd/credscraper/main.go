// Package main provides the credscraper CLI.
//
// credscraper collects default router credentials in two stages:
//
//	credscraper scrape     # manufacturers file -> intermediate JSONL
//	credscraper normalize  # intermediate JSONL -> data.js
//	credscraper run        # both stages
//
// See --help for all available options.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
