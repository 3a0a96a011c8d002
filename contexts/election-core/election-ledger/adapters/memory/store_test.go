package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tally/contexts/election-core/election-ledger/adapters/memory"
	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
	"tally/internal/shared/events"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func TestStoreClonesAcrossBoundary(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	now := time.Now().UTC()

	election := entities.NewElection("election-1", "board", owner, now)
	if _, err := election.AddCandidate(owner, "alice", now); err != nil {
		t.Fatalf("add candidate failed: %v", err)
	}
	if err := store.SaveElection(ctx, election); err != nil {
		t.Fatalf("save election failed: %v", err)
	}

	// Mutating the saved value or a loaded copy must not reach the store.
	election.Candidates[0].VoteCount = 99

	loaded, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if loaded.Candidates[0].VoteCount != 0 {
		t.Fatalf("store leaked caller mutation: %+v", loaded.Candidates)
	}

	loaded.Candidates[0].VoteCount = 7
	again, err := store.GetElection(ctx, "election-1")
	if err != nil {
		t.Fatalf("get election failed: %v", err)
	}
	if again.Candidates[0].VoteCount != 0 {
		t.Fatalf("store leaked loaded-copy mutation: %+v", again.Candidates)
	}
}

func TestStoreListPreservesCreationOrder(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"e1", "e2", "e3"} {
		if err := store.SaveElection(ctx, entities.NewElection(id, id, owner, now)); err != nil {
			t.Fatalf("save election failed: %v", err)
		}
	}
	items, err := store.ListElections(ctx)
	if err != nil {
		t.Fatalf("list elections failed: %v", err)
	}
	if len(items) != 3 || items[0].ElectionID != "e1" || items[2].ElectionID != "e3" {
		t.Fatalf("unexpected order: %+v", items)
	}
}

func TestStoreGetMissingElection(t *testing.T) {
	store := memory.NewStore(nil)
	if _, err := store.GetElection(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrElectionNotFound) {
		t.Fatalf("expected election not found, got %v", err)
	}
}

func TestOutboxAppendListMark(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()

	envelope := events.Envelope{
		EventID:      "evt-1",
		EventType:    "election.voted",
		OccurredAt:   time.Now().UTC(),
		PartitionKey: "election-1",
		Data:         json.RawMessage(`{"candidate_id":0}`),
	}
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
	// Replaying the identical envelope is a no-op, a changed payload conflicts.
	if err := store.AppendOutbox(ctx, envelope); err != nil {
		t.Fatalf("idempotent append failed: %v", err)
	}
	changed := envelope
	changed.Data = json.RawMessage(`{"candidate_id":1}`)
	if err := store.AppendOutbox(ctx, changed); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for changed payload, got %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "evt-1" {
		t.Fatalf("unexpected pending rows: %+v", pending)
	}

	if err := store.MarkOutboxPublished(ctx, "evt-1", time.Now().UTC()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox after publish, got %+v", pending)
	}

	if err := store.MarkOutboxPublished(ctx, "missing", time.Now().UTC()); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for unknown outbox id, got %v", err)
	}
}
