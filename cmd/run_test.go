package main

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"unreadwatch/internal/monitor"
)

func TestMonitorProxyBeforeMonitorIsReady(t *testing.T) {
	proxy := &monitorProxy{}

	proxy.RequestRefresh()

	if _, err := proxy.Status(context.Background()); err == nil {
		t.Fatalf("expected an error before the monitor is set")
	}
}

func TestMonitorProxyPublishesMonitorToConcurrentCallers(t *testing.T) {
	proxy := &monitorProxy{}
	mon := monitor.New(monitor.Deps{}, slog.New(slog.DiscardHandler))

	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			for range 100 {
				proxy.RequestRefresh()
			}
		})
	}

	proxy.mon.Store(mon)
	wg.Wait()

	if proxy.mon.Load() != mon {
		t.Fatalf("proxy does not hold the published monitor")
	}
}
