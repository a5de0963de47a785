// Chunked block delivery with pacing and nested-children threading.
//
// Information Hiding:
// - Batch partitioning, pacing, and id threading stay here
// - The network call is behind the Appender seam
package notion

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultPace is the inter-request delay that keeps sustained delivery
// under Notion's ~3 requests/second budget.
const DefaultPace = 350 * time.Millisecond

// Appender is the single network operation delivery depends on.
type Appender interface {
	AppendChildren(ctx context.Context, blockID string, blocks []Block) ([]string, error)
}

// DeliveryOptions configures a Deliverer. Zero values fall back to
// platform defaults.
type DeliveryOptions struct {
	// ChunkSize caps blocks per request; defaults to MaxBlocksPerRequest.
	ChunkSize int
	// Pace is the fixed delay between consecutive requests; defaults to
	// DefaultPace.
	Pace time.Duration
	// Logger receives per-chunk progress at debug level.
	Logger *logrus.Logger
}

// DeliveryReport summarizes one Deliver call. BlocksAdded counts every
// appended block, nested rows included; ChunkCount counts network calls.
type DeliveryReport struct {
	BlocksAdded int
	ChunkCount  int
}

// Deliverer sends a node tree to the platform in ordered, paced chunks.
type Deliverer struct {
	appender  Appender
	chunkSize int
	limiter   *rate.Limiter
	log       *logrus.Logger
}

// NewDeliverer builds a Deliverer on top of an Appender.
func NewDeliverer(appender Appender, opts DeliveryOptions) *Deliverer {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 || chunkSize > MaxBlocksPerRequest {
		chunkSize = MaxBlocksPerRequest
	}
	pace := opts.Pace
	if pace <= 0 {
		pace = DefaultPace
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Deliverer{
		appender:  appender,
		chunkSize: chunkSize,
		// Burst 1 makes the first request immediate and every following
		// request wait out the pace interval, so there is no trailing
		// delay after the last chunk.
		limiter: rate.NewLimiter(rate.Every(pace), 1),
		log:     log,
	}
}

// Deliver appends nodes under targetID in document order. Batches are
// strictly sequential: pacing is enforced between requests, and a node's
// children can only be sent once the server has assigned the parent's id,
// so chunk order is a data dependency, not a throughput choice.
//
// On error, delivery stops where it stands; chunks already accepted by
// the platform are not rolled back. The report reflects what was actually
// delivered either way.
func (d *Deliverer) Deliver(ctx context.Context, targetID string, nodes []Node) (DeliveryReport, error) {
	var report DeliveryReport
	err := d.deliver(ctx, targetID, nodes, &report)
	return report, err
}

func (d *Deliverer) deliver(ctx context.Context, targetID string, nodes []Node, report *DeliveryReport) error {
	for start := 0; start < len(nodes); start += d.chunkSize {
		end := min(start+d.chunkSize, len(nodes))
		batch := nodes[start:end]

		blocks := make([]Block, len(batch))
		pending := make(map[int][]Node)
		for i, node := range batch {
			blocks[i] = node.Block
			if len(node.Children) > 0 {
				pending[i] = node.Children
			}
		}

		if err := d.limiter.Wait(ctx); err != nil {
			return err
		}
		ids, err := d.appender.AppendChildren(ctx, targetID, blocks)
		if err != nil {
			return err
		}
		report.BlocksAdded += len(blocks)
		report.ChunkCount++
		d.log.WithFields(logrus.Fields{
			"target": targetID,
			"blocks": len(blocks),
			"chunk":  report.ChunkCount,
		}).Debug("appended block chunk")

		// Children are delivered before the next sibling batch so the
		// document is assembled strictly in order.
		for i := range batch {
			children, ok := pending[i]
			if !ok {
				continue
			}
			if err := d.deliver(ctx, ids[i], children, report); err != nil {
				return err
			}
		}
	}
	return nil
}
