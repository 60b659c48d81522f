package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"studio/internal/domain"
	"studio/internal/quota"
	"studio/internal/session"
	"studio/pkg/zip"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type historyResponse struct {
	Query   string     `json:"query"`
	Count   int        `json:"count"`
	Entries []entryDTO `json:"entries"`
}

// streamMessage is pushed to websocket clients after every history change.
type streamMessage struct {
	Type    string      `json:"type"`
	Query   string      `json:"query"`
	Entries []entryDTO  `json:"entries"`
	Usage   quota.Usage `json:"usage"`
}

// filterMessage lets a connected client change its search term.
type filterMessage struct {
	Query string `json:"q"`
}

func (a *App) History(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	term := r.URL.Query().Get("q")
	entries := s.History(term)
	a.json(w, http.StatusOK, historyResponse{Query: term, Count: len(entries), Entries: toEntryDTOs(entries)})
}

// HistoryExport downloads the (optionally filtered) history as a zip with one
// markdown file per entry plus a history.json index.
func (a *App) HistoryExport(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	entries := s.History(r.URL.Query().Get("q"))
	index, err := json.MarshalIndent(toEntryDTOs(entries), "", "  ")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	files := make([]zip.File, 0, len(entries)+1)
	files = append(files, zip.File{Name: "history.json", Modified: time.Now().UTC(), Data: index})
	for _, e := range entries {
		files = append(files, zip.File{Name: exportName(e), Modified: e.Date, Data: []byte(exportBody(e))})
	}
	archive, err := zip.Archive(files)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=history-%s.zip", time.Now().UTC().Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func exportName(e domain.HistoryEntry) string {
	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s-%s.md", e.Date.UTC().Format("20060102-150405"), e.Type, id)
}

func exportBody(e domain.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Type.Label())
	fmt.Fprintf(&b, "- Date: %s\n- Plan: %s\n\n", e.Date.UTC().Format(time.RFC3339), e.Plan)
	fmt.Fprintf(&b, "## Prompt\n\n%s\n\n## Output\n\n%s\n", e.Prompt, e.GeneratedText)
	return b.String()
}

// HistoryStream upgrades to a websocket and pushes the filtered history
// whenever it changes. The stream closes when the session ends.
func (a *App) HistoryStream(w http.ResponseWriter, r *http.Request) {
	s, err := a.session(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.log(r).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	log := a.log(r).With().Str("user_id", s.UserID()).Logger()
	log.Debug().Msg("history stream opened")

	changes, stop := s.Watch()
	defer stop()

	terms := make(chan string, 1)
	done := make(chan struct{})
	go readPump(conn, terms, done)
	writePump(conn, s, r.URL.Query().Get("q"), changes, terms, done)
	log.Debug().Msg("history stream closed")
}

// readPump consumes client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, terms chan string, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg filterMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		select {
		case terms <- msg.Query:
		default:
			// replace a pending term that was not picked up yet
			select {
			case <-terms:
			default:
			}
			terms <- msg.Query
		}
	}
}

func writePump(conn *websocket.Conn, s *session.Session, term string, changes <-chan struct{}, terms <-chan string, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	send := func() error {
		entries := s.History(term)
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(streamMessage{
			Type:    "snapshot",
			Query:   term,
			Entries: toEntryDTOs(entries),
			Usage:   s.Usage(),
		})
	}
	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case t := <-terms:
			term = t
			if err := send(); err != nil {
				return
			}
		case _, ok := <-changes:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := send(); err != nil {
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
