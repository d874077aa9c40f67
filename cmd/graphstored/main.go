// Copyright 2015-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Program graphstored serves an RDF dataset over HTTP, following the
// SPARQL 1.1 Protocol and the SPARQL 1.1 Graph Store HTTP Protocol.
// Prometheus metrics are available at /metrics.
//
// Settings can come from a YAML file named by -config, whose keys
// are the flag names with underscores:
//
//     http: ":5980"
//     backend: "badger:/var/lib/graphstore"
//     log_requests: true
//     metrics_interval: 1m
//
// Flags given on the command line override the file.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/diffeo/go-graphstore/sparql"
	"github.com/diffeo/go-graphstore/store"
)

func main() {
	config, err := parseConfig(os.Args[1:])
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Fatal("Invalid configuration")
		return
	}
	level, err := logrus.ParseLevel(config.LogLevel)
	if err == nil {
		logrus.SetLevel(level)
	}

	var st store.Store
	b, err := config.StoreBackend()
	if err == nil {
		st, err = b.Store()
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err":     err,
			"backend": config.Backend,
		}).Fatal("Could not create store backend")
		return
	}
	defer st.Close()

	engine := sparql.NewEngine(st, config.QueryCacheSize)
	m := newMetrics(clock.New(), engine)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.MetricsInterval > 0 {
		go m.observe(ctx, st, config.MetricsInterval)
	}

	l, err := net.Listen("tcp", config.HTTP)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"err":  err,
			"http": config.HTTP,
		}).Error("Could not listen")
		return
	}
	server := &http.Server{
		Handler: newHandler(st, engine, config, m, logrus.StandardLogger()),
	}
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	logrus.WithFields(logrus.Fields{
		"http": l.Addr().String(),
	}).Info("Serving")
	if err = serve(server, l, signals, 10*time.Second); err != nil {
		logrus.WithFields(logrus.Fields{
			"err": err,
		}).Error("HTTP server failed")
	}
}
