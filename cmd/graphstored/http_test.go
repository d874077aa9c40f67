// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package main

import (
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) net.Listener {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return l
}

func TestServeWaitsForRequests(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		close(started)
		<-release
		w.WriteHeader(http.StatusNoContent)
	})
	l := listen(t)
	signals := make(chan os.Signal, 1)
	returned := make(chan error, 1)
	go func() {
		returned <- serve(&http.Server{Handler: handler}, l, signals, 10*time.Second)
	}()

	status := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + l.Addr().String() + "/")
		if err != nil {
			status <- 0
			return
		}
		resp.Body.Close()
		status <- resp.StatusCode
	}()

	<-started
	signals <- os.Interrupt
	select {
	case err := <-returned:
		t.Fatalf("serve returned %v while a request was running", err)
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	assert.NoError(t, <-returned)
	assert.Equal(t, http.StatusNoContent, <-status)
}

func TestServeIdleShutdown(t *testing.T) {
	signals := make(chan os.Signal, 1)
	signals <- os.Interrupt
	err := serve(&http.Server{Handler: http.NotFoundHandler()}, listen(t), signals, time.Second)
	assert.NoError(t, err)
}

func TestServeListenerError(t *testing.T) {
	l := listen(t)
	require.NoError(t, l.Close())
	err := serve(&http.Server{Handler: http.NotFoundHandler()}, l, make(chan os.Signal), time.Second)
	assert.Error(t, err)
}
