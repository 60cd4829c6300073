package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/voting-engine/domain/entities"
	domainerrors "agora/contexts/governance-core/voting-engine/domain/errors"
	"agora/contexts/governance-core/voting-engine/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-process engine state: round scalar, proposal arena,
// participant registry, the four indexed sets, a capped credit ledger and
// the event outbox. It implements every engine port so a module can be
// wired fully in memory.
type Store struct {
	mu sync.RWMutex

	round        entities.Round
	proposals    map[uint64]entities.Proposal
	nextID       uint64
	participants map[string]bool
	sets         map[entities.SetName]*entities.IndexedSet

	balances map[string]int64
	minted   int64
	cap      int64
	operator string

	outbox map[string]outboxRecord
}

// NewStore seeds a closed round at period 1. operator is the engine account
// allowed to mint, burn and pull transfers on the embedded credit ledger.
func NewStore(creditCap int64, operator string) *Store {
	return &Store{
		round: entities.Round{
			State:     entities.RoundStateClosed,
			Period:    1,
			UpdatedAt: time.Now().UTC(),
		},
		proposals:    make(map[uint64]entities.Proposal),
		nextID:       1,
		participants: make(map[string]bool),
		sets: map[entities.SetName]*entities.IndexedSet{
			entities.SetPendingFunding:  {},
			entities.SetApprovedFunding: {},
			entities.SetSignaling:       {},
			entities.SetRefundable:      {},
		},
		balances: make(map[string]int64),
		cap:      creditCap,
		operator: strings.TrimSpace(operator),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) GetRound(_ context.Context) (entities.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.round, nil
}

func (s *Store) SaveRound(_ context.Context, round entities.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round = round
	return nil
}

func (s *Store) NextProposalID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	return id, nil
}

func (s *Store) GetProposal(_ context.Context, id uint64) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[id]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	proposal.VotesByVoter = proposal.CloneVotes()
	return proposal, nil
}

func (s *Store) SaveProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal.VotesByVoter = proposal.CloneVotes()
	s.proposals[proposal.ID] = proposal
	return nil
}

func (s *Store) IsParticipant(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.participants[strings.TrimSpace(address)], nil
}

func (s *Store) SetParticipant(_ context.Context, address string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	address = strings.TrimSpace(address)
	if active {
		s.participants[address] = true
	} else {
		delete(s.participants, address)
	}
	return nil
}

func (s *Store) AppendToSet(_ context.Context, set entities.SetName, id uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.sets[set]
	if !ok {
		return 0, domainerrors.ErrProposalNotFound
	}
	return target.Append(id), nil
}

func (s *Store) SwapRemoveAt(_ context.Context, set entities.SetName, slot int) (uint64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.sets[set]
	if !ok {
		return 0, false, domainerrors.ErrProposalNotFound
	}
	moved, hasMoved, removed := target.SwapRemoveAt(slot)
	if !removed {
		return 0, false, domainerrors.ErrProposalNotFound
	}
	return moved, hasMoved, nil
}

func (s *Store) ListSet(_ context.Context, set entities.SetName) ([]uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.sets[set]
	if !ok {
		return nil, domainerrors.ErrProposalNotFound
	}
	return target.IDs(), nil
}

func (s *Store) SetLen(_ context.Context, set entities.SetName) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	target, ok := s.sets[set]
	if !ok {
		return 0, domainerrors.ErrProposalNotFound
	}
	return target.Len(), nil
}

func (s *Store) ClearSet(_ context.Context, set entities.SetName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.sets[set]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	target.Clear()
	return nil
}

// Credit ledger. Mint/burn and transfer-from are restricted to the operator
// account the store was built with; the cap bounds cumulative live supply.

func (s *Store) Mint(_ context.Context, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount <= 0 {
		return domainerrors.ErrLedgerRejected
	}
	if s.cap > 0 && s.minted+amount > s.cap {
		return domainerrors.ErrSupplyCapExceeded
	}
	s.minted += amount
	s.balances[strings.TrimSpace(to)] += amount
	return nil
}

func (s *Store) Burn(_ context.Context, from string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from = strings.TrimSpace(from)
	if amount <= 0 || s.balances[from] < amount {
		return domainerrors.ErrLedgerRejected
	}
	s.balances[from] -= amount
	s.minted -= amount
	return nil
}

func (s *Store) BalanceOf(_ context.Context, address string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[strings.TrimSpace(address)], nil
}

func (s *Store) Transfer(_ context.Context, from string, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(from, to, amount)
}

func (s *Store) TransferFrom(_ context.Context, operator string, from string, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if strings.TrimSpace(operator) != s.operator {
		return domainerrors.ErrLedgerRejected
	}
	return s.move(from, to, amount)
}

func (s *Store) move(from string, to string, amount int64) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if amount <= 0 || s.balances[from] < amount {
		return domainerrors.ErrInsufficientCredit
	}
	s.balances[from] -= amount
	s.balances[to] += amount
	return nil
}

// Outbox.

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrLedgerRejected
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
