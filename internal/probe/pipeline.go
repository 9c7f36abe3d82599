package probe

import (
	"NetSpike/internal/attribution"
	"NetSpike/internal/engine/protocol"
	"NetSpike/internal/feed"
	"NetSpike/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// FrameSink receives every raw frame before classification.
type FrameSink interface {
	Write(ci gopacket.CaptureInfo, data []byte)
}

// Counters is a point-in-time copy of the pipeline counters.
type Counters struct {
	Frames    uint64
	Malformed uint64
	Noise     uint64
	Delivered uint64
}

// Pipeline is the producer: it reads frames from a source, attributes and
// classifies them, and hands the survivors to the consumer queue.
type Pipeline struct {
	source     gopacket.PacketDataSource
	classifier *protocol.Classifier
	cache      *attribution.Cache
	sink       FrameSink
	filter     *NoiseFilter
	out        *feed.Queue

	refreshEvery time.Duration
	lastRefresh  time.Time
	now          func() time.Time

	frames    atomic.Uint64
	malformed atomic.Uint64
	noise     atomic.Uint64
	delivered atomic.Uint64
	running   atomic.Bool
}

// Options wires the optional collaborators of a Pipeline.
type Options struct {
	// Cache is nil when attribution is disabled.
	Cache        *attribution.Cache
	RefreshEvery time.Duration
	// Sink is nil when persistence is not configured.
	Sink  FrameSink
	Clock func() time.Time
}

// NewPipeline creates a producer reading from source into out.
func NewPipeline(source gopacket.PacketDataSource, classifier *protocol.Classifier, filter *NoiseFilter, out *feed.Queue, opts Options) *Pipeline {
	p := &Pipeline{
		source:       source,
		classifier:   classifier,
		cache:        opts.Cache,
		sink:         opts.Sink,
		filter:       filter,
		out:          out,
		refreshEvery: opts.RefreshEvery,
		now:          opts.Clock,
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.refreshEvery <= 0 {
		p.refreshEvery = 2 * time.Second
	}
	return p
}

// Counters returns the current counter values.
func (p *Pipeline) Counters() Counters {
	return Counters{
		Frames:    p.frames.Load(),
		Malformed: p.malformed.Load(),
		Noise:     p.noise.Load(),
		Delivered: p.delivered.Load(),
	}
}

// Running reports whether Run is still reading frames.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run reads until the source is exhausted or fails, ctx is done, or the
// consumer goes away. It never reopens the source. The queue is marked
// finished on return so the consumer can report the stall.
func (p *Pipeline) Run(ctx context.Context) error {
	p.running.Store(true)
	defer func() {
		p.running.Store(false)
		p.out.Finish()
	}()

	p.refresh(ctx)
	log.Println("Capture pipeline started.")

	for {
		if ctx.Err() != nil {
			log.Println("Capture pipeline stopping.")
			return nil
		}

		data, ci, err := p.source.ReadPacketData()
		if err != nil {
			if err == pcap.NextErrorTimeoutExpired {
				continue
			}
			if errors.Is(err, io.EOF) || err == pcap.NextErrorNoMorePackets {
				log.Println("Capture source exhausted.")
				return nil
			}
			log.Printf("Capture source failed: %v", err)
			return fmt.Errorf("capture source failed: %w", err)
		}

		if err := p.handle(ctx, ci, data); err != nil {
			if errors.Is(err, feed.ErrClosed) {
				log.Println("Consumer closed, capture pipeline stopping.")
				return nil
			}
			return err
		}
	}
}

func (p *Pipeline) handle(ctx context.Context, ci gopacket.CaptureInfo, data []byte) error {
	p.frames.Add(1)

	if p.sink != nil {
		p.sink.Write(ci, data)
	}

	if p.cache != nil && p.now().Sub(p.lastRefresh) > p.refreshEvery {
		p.refresh(ctx)
	}

	frame, ok := p.classifier.Decode(data)
	if !ok {
		p.malformed.Add(1)
		return nil
	}

	app := model.UnknownApp
	if p.cache != nil {
		src, dst := frame.Ports()
		app = p.cache.Resolve(src, dst)
	}

	rec := p.classifier.Record(frame, app)
	if p.filter != nil && p.filter.Drop(rec) {
		p.noise.Add(1)
		return nil
	}

	if err := p.out.Send(rec); err != nil {
		return err
	}
	p.delivered.Add(1)
	return nil
}

func (p *Pipeline) refresh(ctx context.Context) {
	if p.cache == nil {
		return
	}
	p.lastRefresh = p.now()
	if err := p.cache.Refresh(ctx); err != nil {
		log.Printf("Attribution refresh failed, keeping previous table: %v", err)
	}
}
