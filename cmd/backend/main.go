// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/dwt27/isopod/internal/backend"
	"github.com/dwt27/isopod/internal/config"
)

func main() {
	addr := flag.String("listen", "", "listen address (overrides the config file)")
	configPath := flag.String("config", "isopod_config.txt", "path to the configuration file")
	flag.Parse()

	listen := *addr
	if listen == "" {
		// The backend usually runs on a different machine from the
		// controller; the config file is optional here.
		if err := config.InitGlobal(*configPath); err == nil {
			listen = config.Get().BackendListenAddr
		} else {
			listen = ":1309"
		}
	}

	log.Println("starting isopod telemetry backend")
	if err := backend.Run(listen); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
