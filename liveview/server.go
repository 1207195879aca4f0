package liveview

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// Server serves a single leaderboard page to a single browser tab over a
// single websocket. Like the teacher's prototype server, this intentionally
// does not fan one update stream out to multiple concurrent viewers; adding
// that is a matter of giving each /ws connection its own broadcast
// subscription instead of draining the shared channel directly.
type Server struct {
	addr    string
	updates <-chan []Entry
	last    []Entry
}

// NewServer returns a Server that will publish whatever arrives on updates.
func NewServer(addr string, initial []Entry, updates <-chan []Entry) *Server {
	return &Server{addr: addr, updates: updates, last: initial}
}

// Serve blocks, serving the leaderboard page and websocket until ctx is
// cancelled or http.ListenAndServe fails.
func (s *Server) Serve(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket)

	srv := &http.Server{Addr: s.addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("liveview: serve: %w", err)
	}
	return nil
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := newClient(s.updates, w, r)
	if err != nil {
		log.Println("liveview: upgrade:", err)
		return
	}
	defer cli.ws.close()

	if err := cli.sync(); err != nil && !isClosure(err) {
		log.Println("liveview: client session ended:", err)
	}
}

const indexTemplate = `
<!DOCTYPE html>
<html>
<head>
	<title>cfrating leaderboard</title>
	<link rel="icon" href="data:,">
	<style>
		table { border-collapse: collapse; font-family: monospace; }
		td, th { padding: 2px 12px; text-align: right; }
	</style>
</head>
<body>
	<table id="board">
		<thead><tr><th>#</th><th>handle</th><th>mu</th><th>sigma</th></tr></thead>
		<tbody>
		{{ range . }}
			<tr><td>{{ .Rank }}</td><td>{{ .Handle }}</td><td>{{ printf "%.1f" .Mu }}</td><td>{{ printf "%.1f" .Sigma }}</td></tr>
		{{ end }}
		</tbody>
	</table>
	<script>
		const ws = new WebSocket("ws://" + location.host + "/ws");
		ws.onmessage = function(event) {
			const entries = JSON.parse(event.data);
			const tbody = document.querySelector("#board tbody");
			tbody.innerHTML = "";
			for (const e of entries) {
				const row = document.createElement("tr");
				row.innerHTML = "<td>" + e.rank + "</td><td>" + e.handle + "</td><td>" +
					e.mu.toFixed(1) + "</td><td>" + e.sigma.toFixed(1) + "</td>";
				tbody.appendChild(row);
			}
		};
	</script>
</body>
</html>
`

var indexTmpl = template.Must(template.New("index").Parse(indexTemplate))

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if err := indexTmpl.Execute(w, s.last); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
