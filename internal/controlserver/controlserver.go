// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package controlserver exposes the HTTP control surface: a static
// control page plus the POST /command endpoint that commits brightness
// and pattern setpoints into the shared Controls.
package controlserver

import (
	"log"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dwt27/isopod/internal/control"
)

// maxCommandBody bounds the form body of a /command request.
const maxCommandBody = 4096

// NewMux builds the control-surface routes. staticDir holds index.html
// and bootstrap.css. Split from Run so the handler can be exercised
// with httptest.
func NewMux(controls *control.Controls, staticDir string) *http.ServeMux {
	mux := http.NewServeMux()

	serveFile := func(name string) http.HandlerFunc {
		path := filepath.Join(staticDir, name)
		return func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, path)
		}
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		serveFile("index.html")(w, r)
	})
	mux.HandleFunc("/index.html", serveFile("index.html"))
	mux.HandleFunc("/bootstrap.css", serveFile("bootstrap.css"))

	mux.HandleFunc("/command", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxCommandBody)
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		log.Printf("controlserver: command %v", r.PostForm)

		if v := r.PostForm.Get("brightness"); v != "" {
			// Out-of-range and non-numeric values are dropped; the
			// last-valid setpoint persists.
			if b, err := strconv.Atoi(v); err == nil {
				controls.SetBrightness(b)
			}
		}
		if name := r.PostForm.Get("pattern"); name != "" {
			controls.SetPatternName(name)
		}
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

// Run serves the control surface on the configured address. It blocks
// until the listener fails.
func Run(addr, staticDir string, controls *control.Controls) error {
	log.Printf("controlserver: listening on %s", addr)
	return http.ListenAndServe(addr, NewMux(controls, staticDir))
}
