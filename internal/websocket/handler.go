package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/gahshomar/internal/calendar"
)

// HandleWebSocket upgrades the connection and runs it as a Hub client. The
// optional start and end query parameters restrict the feed to changes
// touching that span of days.
func HandleWebSocket(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var window Window
		for name, dst := range map[string]*string{"start": &window.First, "end": &window.Last} {
			v := r.URL.Query().Get(name)
			if v == "" {
				continue
			}
			i, err := calendar.ParseInstant(v)
			if err != nil {
				http.Error(w, "invalid "+name+": "+err.Error(), http.StatusBadRequest)
				return
			}
			*dst = i.DayKey()
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, window)
		client.Run(r.Context())
	}
}
