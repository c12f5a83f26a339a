package main

import (
	"os"
	"slices"
	"strconv"
	"venue/config"
	"venue/helper"
	"venue/shared/logger"

	"github.com/rs/zerolog/log"
)

var commands = map[string]func(cfg *config.Config, args []string) error{
	"up":      func(cfg *config.Config, _ []string) error { return helper.Up(cfg) },
	"down":    func(cfg *config.Config, _ []string) error { return helper.Down(cfg) },
	"drop":    func(cfg *config.Config, _ []string) error { return helper.Drop(cfg) },
	"step-up": func(cfg *config.Config, _ []string) error { return helper.StepUp(cfg) },
	"version": func(cfg *config.Config, _ []string) error { return helper.Version(cfg) },
	"force":   force,
}

// force clears the dirty flag after a failed migration was repaired by hand.
func force(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		log.Fatal().Msg("force requires a version")
	}

	version, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatal().Err(err).Str("version", args[0]).Msg("version must be an integer")
	}

	return helper.Force(cfg, version)
}

func usage() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func main() {
	logger.InitLogger()

	if len(os.Args) < 2 {
		log.Fatal().Strs("commands", usage()).Msg("migration command is required")
	}

	run, ok := commands[os.Args[1]]
	if !ok {
		log.Fatal().Str("command", os.Args[1]).Strs("commands", usage()).Msg("unknown migration command")
	}

	cfg := config.Get()
	logger.SetLogLevel(cfg)

	if err := run(cfg, os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("migration failed")
	}
}
