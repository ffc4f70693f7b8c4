package crossing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Responder serves a plain-text status endpoint over the lights. It only ever
// reads phases through CurrentPhase, the non-blocking side of the controller.
type Responder struct {
	addr   string
	lights []*TrafficLight
	byID   map[int]*TrafficLight
}

func NewResponder(cfg *ResponderConfig, lights []*TrafficLight) *Responder {
	byID := make(map[int]*TrafficLight, len(lights))
	for _, l := range lights {
		byID[l.ID()] = l
	}
	return &Responder{
		addr:   cfg.Addr,
		lights: lights,
		byID:   byID,
	}
}

func (r *Responder) Run(ctx context.Context) error {
	srv := http.Server{
		Addr:    r.addr,
		Handler: r.handler(),
	}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info("responder listening", "addr", r.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (r *Responder) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handleIndex)
	mux.HandleFunc("/light/", r.handleLight)
	return mux
}

func (r *Responder) handleIndex(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != "/" {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	for _, l := range r.lights {
		fmt.Fprintf(w, "light %d: %s\n", l.ID(), l.CurrentPhase())
	}
}

// handleLight answers 200 while the light is green and 503 while it is red,
// so the endpoint doubles as a go/no-go probe.
func (r *Responder) handleLight(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(req.URL.Path, "/light/"))
	if err != nil {
		http.NotFound(w, req)
		return
	}
	l := r.byID[id]
	if l == nil {
		http.NotFound(w, req)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	switch p := l.CurrentPhase(); p {
	case PhaseGreen:
		fmt.Fprintln(w, p)
	case PhaseRed:
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, p)
	default:
		logger.Warn("unknown phase", "light", id, "phase", p)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintln(w, "Internal Server Error")
	}
}
