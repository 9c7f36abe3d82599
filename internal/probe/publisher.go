package probe

import (
	"NetSpike/internal/config"
	"NetSpike/internal/model"
	"log"
	"sync/atomic"

	"github.com/nats-io/nats.go"
)

// Publisher mirrors every applied record to a NATS subject. It is
// registered as a consumer observer.
type Publisher struct {
	nc      *nats.Conn
	subject string

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.NATSConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("netspike"))
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Observe publishes rec. The NATS client buffers the write, so this does not
// block the consumer.
func (p *Publisher) Observe(rec *model.PacketRecord) {
	data, err := MarshalRecord(rec)
	if err == nil {
		err = p.nc.Publish(p.subject, data)
	}
	if err != nil {
		// Only the first failure is logged to avoid flooding.
		if p.failed.Add(1) == 1 {
			log.Printf("Failed to publish record to NATS: %v", err)
		}
		return
	}
	p.published.Add(1)
}

// Stats returns the number of published and failed records.
func (p *Publisher) Stats() (published, failed uint64) {
	return p.published.Load(), p.failed.Load()
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		published, failed := p.Stats()
		log.Printf("NATS connection drained and closed (%d published, %d failed).", published, failed)
	}
}
