// Package queue provides at-least-once job delivery over an AMQP broker.
// Workers take one job at a time (prefetch 1) and acknowledge only after
// the handler returns, so a job held by a crashed worker is redelivered.
// Durable effects are made at-most-once by the transaction store's unique
// signature constraint; the composition yields effectively-exactly-once
// persisted transactions.
package queue

import (
	"encoding/json"
	"fmt"
)

// Job type names, carried in the message envelope.
const (
	TypePriceRefresh = "price.refresh"
	TypeWalletFanout = "wallet.fanout"
	TypeWalletCheck  = "wallet.check"
)

// Queue names. Price refreshes and wallet work are routed separately so
// a burst of wallet checks cannot starve the rate refresh.
const (
	QueuePriceUpdates     = "price_updates"
	QueueWalletMonitoring = "wallet_monitoring"
)

// Job is one unit of work. The set of implementations is closed: the
// worker dispatch loop decodes exactly these variants and rejects
// anything else permanently.
type Job interface {
	// Type returns the envelope type name.
	Type() string

	// Queue returns the queue the job is routed to.
	Queue() string
}

// PriceRefreshJob refreshes the shared USD rate snapshot.
type PriceRefreshJob struct{}

func (PriceRefreshJob) Type() string  { return TypePriceRefresh }
func (PriceRefreshJob) Queue() string { return QueuePriceUpdates }

// WalletFanoutJob scans eligible campaigns and enqueues one WalletCheckJob
// per campaign.
type WalletFanoutJob struct{}

func (WalletFanoutJob) Type() string  { return TypeWalletFanout }
func (WalletFanoutJob) Queue() string { return QueueWalletMonitoring }

// WalletCheckJob ingests recent transactions for one escrow wallet.
type WalletCheckJob struct {
	WalletAddress string `json:"wallet_address"`
	CampaignID    string `json:"campaign_id"`
}

func (WalletCheckJob) Type() string  { return TypeWalletCheck }
func (WalletCheckJob) Queue() string { return QueueWalletMonitoring }

// Envelope is the wire format of a published job.
type Envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Attempt int             `json:"attempt"` // 1-based invocation counter
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope wraps a job for publishing.
func NewEnvelope(job Job, id string, attempt int) (*Envelope, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}
	return &Envelope{
		Type:    job.Type(),
		ID:      id,
		Attempt: attempt,
		Payload: payload,
	}, nil
}

// Encode serializes the envelope for the wire.
func (e *Envelope) Encode() ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return body, nil
}

// DecodeEnvelope parses a message body into an envelope.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("envelope missing type")
	}
	return &env, nil
}

// Job decodes the envelope payload into its typed variant. Unknown types
// return an error and are rejected permanently by the worker.
func (e *Envelope) Job() (Job, error) {
	switch e.Type {
	case TypePriceRefresh:
		var job PriceRefreshJob
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &job); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
			}
		}
		return job, nil

	case TypeWalletFanout:
		var job WalletFanoutJob
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &job); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
			}
		}
		return job, nil

	case TypeWalletCheck:
		var job WalletCheckJob
		if err := json.Unmarshal(e.Payload, &job); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
		}
		return job, nil

	default:
		return nil, fmt.Errorf("unknown job type %q", e.Type)
	}
}
