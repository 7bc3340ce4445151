// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package visualiser broadcasts the rendered LED state to WebSocket
// subscribers, one JSON packet per frame. Slow subscribers are dropped
// rather than allowed to apply backpressure to the render loop.
package visualiser

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dwt27/isopod/internal/control"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the visualiser frontend is served from anywhere
	},
}

// packet is the wire format sent to each subscriber: 12 spines of
// [r,g,b] triples.
type packet struct {
	Spines [][][3]uint8 `json:"spines"`
}

// subscriberBuffer is how many frames a subscriber may fall behind
// before it is disconnected.
const subscriberBuffer = 8

// Server fans rendered frames out to any number of WebSocket clients.
type Server struct {
	mu   sync.Mutex
	subs map[chan packet]struct{}
}

// New returns an empty Server. Call Run in its own goroutine.
func New() *Server {
	return &Server{subs: make(map[chan packet]struct{})}
}

// Broadcast queues the frame to every live subscriber. A subscriber
// whose buffer is full has stalled: it is closed and forgotten.
func (s *Server) Broadcast(frame *control.Frame) {
	pkt := encodeFrame(frame)

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- pkt:
		default:
			delete(s.subs, ch)
			close(ch)
			log.Println("visualiser: dropping slow subscriber")
		}
	}
}

func encodeFrame(frame *control.Frame) packet {
	spines := make([][][3]uint8, len(frame))
	for si := range frame {
		spine := make([][3]uint8, len(frame[si]))
		for li, px := range frame[si] {
			spine[li] = [3]uint8{px.R, px.G, px.B}
		}
		spines[si] = spine
	}
	return packet{Spines: spines}
}

// Run serves the /ws endpoint on addr. It blocks until the listener
// fails.
func (s *Server) Run(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWs)
	log.Printf("visualiser: listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("visualiser: upgrade failed: %v", err)
		return
	}
	log.Println("visualiser: websocket connected")

	ch := make(chan packet, subscriberBuffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
		conn.Close()
		log.Println("visualiser: websocket disconnected")
	}()

	for pkt := range ch {
		if err := conn.WriteJSON(pkt); err != nil {
			return
		}
	}
}
