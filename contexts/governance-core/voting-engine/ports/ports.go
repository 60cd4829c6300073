package ports

import (
	"context"
	"encoding/json"
	"time"

	"agora/contexts/governance-core/voting-engine/domain/entities"
)

// EngineRepository holds the engine's single-owner mutable state: the round
// scalar, the proposal arena, the participant registry and the four indexed
// sets. Set operations are structural only; slot-index bookkeeping on the
// proposals themselves is the use case's responsibility.
type EngineRepository interface {
	GetRound(ctx context.Context) (entities.Round, error)
	SaveRound(ctx context.Context, round entities.Round) error

	NextProposalID(ctx context.Context) (uint64, error)
	GetProposal(ctx context.Context, id uint64) (entities.Proposal, error)
	SaveProposal(ctx context.Context, proposal entities.Proposal) error

	IsParticipant(ctx context.Context, address string) (bool, error)
	SetParticipant(ctx context.Context, address string, active bool) error

	AppendToSet(ctx context.Context, set entities.SetName, id uint64) (int, error)
	SwapRemoveAt(ctx context.Context, set entities.SetName, slot int) (moved uint64, hasMoved bool, err error)
	ListSet(ctx context.Context, set entities.SetName) ([]uint64, error)
	SetLen(ctx context.Context, set entities.SetName) (int, error)
	ClearSet(ctx context.Context, set entities.SetName) error
}

// CreditLedger is the external fungible-credit collaborator. The engine is
// the exclusive mint/burn authority and the only permitted transfer-from
// operator. Implementations map their failures onto the engine's domain
// error sentinels.
type CreditLedger interface {
	Mint(ctx context.Context, to string, amount int64) error
	Burn(ctx context.Context, from string, amount int64) error
	BalanceOf(ctx context.Context, address string) (int64, error)
	Transfer(ctx context.Context, from string, to string, amount int64) error
	TransferFrom(ctx context.Context, operator string, from string, to string, amount int64) error
}

// ExecutionCall carries everything an executable target receives on
// approval. Value is zero for signaling executions. GasLimit is advisory for
// the target; the engine enforces the time ceiling itself.
type ExecutionCall struct {
	Target      string
	ProposalID  uint64
	TotalVotes  int64
	TotalTokens int64
	Value       int64
	GasLimit    int64
}

// ProposalExecutor resolves the opaque target reference at call time and
// invokes it. A returned error aborts the triggering engine operation.
type ProposalExecutor interface {
	Execute(ctx context.Context, call ExecutionCall) error
}

type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
