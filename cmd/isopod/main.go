// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/dwt27/isopod/internal/app"
	"github.com/dwt27/isopod/internal/config"
)

func main() {
	configPath := flag.String("config", "isopod_config.txt", "path to the configuration file")
	flag.Parse()

	log.Println("starting isopod controller")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	log.Println("isopod controller shut down cleanly")
}
