package world

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type httpServer struct {
	ln   net.Listener
	srv  *http.Server
	done chan error
}

// initHTTP binds the listener during Build so an occupied address fails the
// build instead of surfacing later.
func (w *World) initHTTP() error {
	if !enabled(w.flags, addon.HTTP) {
		return nil
	}
	ln, err := net.Listen("tcp", w.opts.httpAddr)
	if err != nil {
		return err
	}

	hs := &httpServer{
		ln:   ln,
		srv:  &http.Server{Handler: w.router()},
		done: make(chan error, 1),
	}
	go func() {
		err := hs.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		hs.done <- err
	}()
	w.http = hs
	w.log.WithField("addr", ln.Addr().String()).Info("http listening")

	w.onClose("http", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), w.opts.shutdownTimeout)
		defer cancel()
		if err := hs.srv.Shutdown(ctx); err != nil {
			return err
		}
		return <-hs.done
	})
	return nil
}

func (w *World) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(w.log.WithField("component", "http")))

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = rw.Write([]byte("ok\n"))
	})

	values := make(map[string]bool)
	for id, on := range w.flags.Values() {
		values[string(id)] = on
	}
	r.Get("/addons", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, values)
	})

	if w.stats != nil {
		stats := w.stats
		r.Get("/stats", func(rw http.ResponseWriter, _ *http.Request) {
			writeJSON(rw, stats.load())
		})
	}
	if w.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(w.metrics.registry, promhttp.HandlerOpts{}))
	}
	return r
}

func writeJSON(rw http.ResponseWriter, v any) {
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

func requestLogger(log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(rw, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			log.WithFields(logrus.Fields{
				"method": req.Method,
				"path":   req.URL.Path,
				"status": ww.Status(),
			}).Debug("request")
		})
	}
}

// HTTPAddr returns the address the HTTP addon listens on.
func (w *World) HTTPAddr() (string, error) {
	if err := w.gate("HTTPAddr", addon.HTTP); err != nil {
		return "", err
	}
	return w.http.ln.Addr().String(), nil
}
