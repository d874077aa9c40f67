// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/negroni"

	"github.com/diffeo/go-graphstore/restserver"
	"github.com/diffeo/go-graphstore/sparql"
	"github.com/diffeo/go-graphstore/store"
)

// requestLogger logs every request through logrus at debug level.
type requestLogger struct {
	Logger *logrus.Logger
	Clock  clock.Clock
}

func (l requestLogger) ServeHTTP(rw http.ResponseWriter, req *http.Request, next http.HandlerFunc) {
	start := l.Clock.Now()
	next(rw, req)
	entry := l.Logger.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     req.URL.Path,
		"remote":   req.RemoteAddr,
		"duration": l.Clock.Now().Sub(start),
	})
	if nrw, ok := rw.(negroni.ResponseWriter); ok {
		entry = entry.WithFields(logrus.Fields{
			"status": nrw.Status(),
			"size":   nrw.Size(),
		})
	}
	entry.Debug("request")
}

// newHandler assembles the complete HTTP handler: the protocol
// routes, /metrics, panic recovery, and optional request logging.
func newHandler(st store.Store, engine *sparql.Engine, config Config, m *metrics, logger *logrus.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(m.Middleware)
	restserver.PopulateRouter(r, st, engine, restserver.Options{
		Logger:       logger,
		MaxBodyBytes: config.MaxBodyBytes,
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Name("metrics")

	n := negroni.New(negroni.NewRecovery())
	if config.LogRequests {
		reqLogger := &logrus.Logger{
			Out:       logger.Out,
			Formatter: logger.Formatter,
			Hooks:     logger.Hooks,
			Level:     logrus.DebugLevel,
		}
		n.Use(requestLogger{Logger: reqLogger, Clock: m.Clock})
	}
	n.UseHandler(r)
	return n
}

// serve runs server on l until it fails or a signal arrives.  After a
// signal it returns only once in-flight requests have finished or
// grace has passed, so the caller may close the store.
func serve(server *http.Server, l net.Listener, signals <-chan os.Signal, grace time.Duration) error {
	drained := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(drained)
		select {
		case <-signals:
		case <-stop:
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logrus.WithFields(logrus.Fields{
				"err": err,
			}).Warn("Shutdown did not drain")
		}
	}()
	err := server.Serve(l)
	if err == http.ErrServerClosed {
		<-drained
		return nil
	}
	return err
}
