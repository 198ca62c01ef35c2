// Package main provides the entry point for the BotBot CLI.
//
// BotBot checks a directory tree for files that break the conventions of a
// shared research filesystem: uncompressed sequencing data, unreadable
// directories, broken links, images leaking GPS coordinates and so on.
//
// Usage:
//
//	botbot file <path>
//	botbot history [path]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
