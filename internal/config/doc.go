// Package config provides configuration structures and utilities for BotBot.
// It defines the options of a check run, the .botbot YAML file that tunes
// the checks, and the XDG locations used for the cache database.
package config
