package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sig-0/ris/session"
)

const (
	// streamBuffer is the number of events a slow stream client may lag behind
	streamBuffer = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// checkOrigin gates websocket upgrades, which browsers don't subject to CORS.
// Clients without an Origin header and same-origin pages are accepted;
// any other page must be among the allowed CORS origins
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	return s.cors != nil && s.cors.OriginAllowed(r)
}

// Stream pushes state changes to the UI over a websocket.
// The current state is sent first, then every change as it happens
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("unable to upgrade stream connection", "err", err)

		return
	}

	defer conn.Close()

	state := s.svc.State()

	id, events := state.Subscribe(streamBuffer)
	defer state.Unsubscribe(id)

	// The read pump handles control frames, and notices the client going away
	closed := make(chan struct{})

	go func() {
		defer close(closed)

		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, event := range initialEvents(state) {
		if err := writeEvent(conn, event); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-s.streamsDone:
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait),
			)

			return
		case event, ok := <-events:
			if !ok {
				return
			}

			if err := writeEvent(conn, event); err != nil {
				s.logger.Debug("unable to write stream event", "err", err)

				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// closeStreams ends every open stream
func (s *Server) closeStreams() {
	s.streamsOnce.Do(func() {
		close(s.streamsDone)
	})
}

func writeEvent(conn *websocket.Conn, event session.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

	return conn.WriteJSON(event)
}

// initialEvents renders the current state as events, so a fresh client needs no extra calls
func initialEvents(state *session.State) []session.Event {
	var (
		now    = time.Now().UTC()
		events = make([]session.Event, 0, 4)
	)

	if snapshot, ok := state.Rates(); ok {
		events = append(events, session.Event{Kind: session.EventRates, At: now, Data: snapshot})
	}

	if reference := state.Reference(); reference != nil {
		events = append(events, session.Event{Kind: session.EventReference, At: now, Data: reference})
	}

	if profile := state.Profile(); profile != nil {
		events = append(events, session.Event{Kind: session.EventProfile, At: now, Data: profile})
	}

	events = append(events, session.Event{
		Kind: session.EventUnreadCount,
		At:   now,
		Data: state.UnreadCount(),
	})

	return events
}
