package main

import (
	"fmt"
	"io"
	"sync"

	"nmapgraph/internal/delivery"
)

// progress prints a tally line to status after each delivery run
type progress struct {
	events chan delivery.Event
	out    io.Writer
	wg     sync.WaitGroup
}

func newProgress(bus *delivery.EventBus, out io.Writer) *progress {
	p := &progress{events: make(chan delivery.Event, 256), out: out}
	bus.Subscribe(p.events)

	p.wg.Add(1)
	go p.loop()
	return p
}

func (p *progress) loop() {
	defer p.wg.Done()

	var created, failed int
	for ev := range p.events {
		switch ev.Type {
		case delivery.EventEntityCreated:
			created++
		case delivery.EventEntityFailed:
			failed++
			fmt.Fprintf(p.out, "failed: %s: %v\n", ev.Key, ev.Err)
		case delivery.EventDeliveryFinished:
			fmt.Fprintf(p.out, "delivered %d entities, %d failed (run %s)\n", created, failed, ev.RunID)
			created, failed = 0, 0
		}
	}
}

// Stop drains pending events. The bus must not publish after Stop.
func (p *progress) Stop() {
	close(p.events)
	p.wg.Wait()
}
