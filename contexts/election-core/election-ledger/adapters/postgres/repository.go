package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tally/contexts/election-core/election-ledger/domain/entities"
	domainerrors "tally/contexts/election-core/election-ledger/domain/errors"
	"tally/contexts/election-core/election-ledger/ports"
	"tally/internal/shared/events"
	"tally/internal/shared/outbox"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists election aggregates and their outbox rows. Saves run in
// one transaction so a ledger mutation and the event it produced commit or
// roll back together.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) SaveElection(ctx context.Context, election entities.Election) error {
	row := electionModelFromEntity(election)
	candidates := candidateModelsFromEntity(election)
	voters := voterModelsFromEntity(election)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":       row.Name,
				"phase":      row.Phase,
				"updated_at": row.UpdatedAt,
			}),
		}).Create(&row).Error; err != nil {
			return err
		}
		for _, candidate := range candidates {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "election_id"}, {Name: "candidate_id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"name":       candidate.Name,
					"vote_count": candidate.VoteCount,
				}),
			}).Create(&candidate).Error; err != nil {
				return err
			}
		}
		for _, voter := range voters {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "election_id"}, {Name: "voter_address"}},
				DoUpdates: clause.Assignments(map[string]any{
					"has_voted":    voter.HasVoted,
					"candidate_id": voter.CandidateID,
				}),
			}).Create(&voter).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_save_failed", err,
			"election_id", strings.TrimSpace(election.ElectionID),
		)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)

	var row electionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", electionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_failed", err, "election_id", electionID)
	}
	return r.assembleElection(ctx, row)
}

func (r *Repository) ListElections(ctx context.Context) ([]entities.Election, error) {
	var rows []electionModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_failed", err)
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		election, err := r.assembleElection(ctx, row)
		if err != nil {
			return nil, err
		}
		items = append(items, election)
	}
	return items, nil
}

func (r *Repository) assembleElection(ctx context.Context, row electionModel) (entities.Election, error) {
	var candidates []candidateModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", row.ID).
		Order("candidate_id ASC").
		Find(&candidates).Error; err != nil {
		return entities.Election{}, r.logError("election_repo_load_candidates_failed", err, "election_id", row.ID)
	}
	var voters []voterModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", row.ID).
		Order("registered_at ASC").
		Find(&voters).Error; err != nil {
		return entities.Election{}, r.logError("election_repo_load_voters_failed", err, "election_id", row.ID)
	}
	return row.toEntity(candidates, voters), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_append_outbox_failed", create.Error,
			"event_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("election_repo_append_outbox_load_existing_failed", err, "event_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-core/election-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

type electionModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name"`
	OwnerAddress string    `gorm:"column:owner_address"`
	Phase        int       `gorm:"column:phase"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	row := electionModel{
		ID:           strings.TrimSpace(election.ElectionID),
		Name:         strings.TrimSpace(election.Name),
		OwnerAddress: election.Owner.Hex(),
		Phase:        int(election.Phase),
		CreatedAt:    election.CreatedAt.UTC(),
		UpdatedAt:    election.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m electionModel) toEntity(candidates []candidateModel, voters []voterModel) entities.Election {
	election := entities.Election{
		ElectionID: m.ID,
		Name:       m.Name,
		Owner:      common.HexToAddress(m.OwnerAddress),
		Phase:      entities.Phase(m.Phase),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	for _, candidate := range candidates {
		election.Candidates = append(election.Candidates, entities.Candidate{
			ID:        candidate.CandidateID,
			Name:      candidate.Name,
			VoteCount: candidate.VoteCount,
		})
	}
	for _, voter := range voters {
		record := entities.VoterRecord{
			Address:  common.HexToAddress(voter.VoterAddress),
			HasVoted: voter.HasVoted,
		}
		if voter.CandidateID != nil {
			record.CandidateID = int(*voter.CandidateID)
		}
		election.Voters = append(election.Voters, record)
	}
	return election
}

type candidateModel struct {
	ElectionID  string `gorm:"column:election_id;primaryKey"`
	CandidateID int    `gorm:"column:candidate_id;primaryKey"`
	Name        string `gorm:"column:name"`
	VoteCount   int    `gorm:"column:vote_count"`
}

func (candidateModel) TableName() string {
	return "election_candidates"
}

func candidateModelsFromEntity(election entities.Election) []candidateModel {
	rows := make([]candidateModel, 0, len(election.Candidates))
	for _, candidate := range election.Candidates {
		rows = append(rows, candidateModel{
			ElectionID:  strings.TrimSpace(election.ElectionID),
			CandidateID: candidate.ID,
			Name:        candidate.Name,
			VoteCount:   candidate.VoteCount,
		})
	}
	return rows
}

type voterModel struct {
	ElectionID   string    `gorm:"column:election_id;primaryKey"`
	VoterAddress string    `gorm:"column:voter_address;primaryKey"`
	HasVoted     bool      `gorm:"column:has_voted"`
	CandidateID  *int64    `gorm:"column:candidate_id"`
	RegisteredAt time.Time `gorm:"column:registered_at;autoCreateTime:false"`
}

func (voterModel) TableName() string {
	return "election_voters"
}

func voterModelsFromEntity(election entities.Election) []voterModel {
	rows := make([]voterModel, 0, len(election.Voters))
	// Registration order is reconstructed from insert timestamps; spacing the
	// rows keeps the ORDER BY stable across one save.
	base := election.CreatedAt.UTC()
	for i, voter := range election.Voters {
		row := voterModel{
			ElectionID:   strings.TrimSpace(election.ElectionID),
			VoterAddress: voter.Address.Hex(),
			HasVoted:     voter.HasVoted,
			RegisteredAt: base.Add(time.Duration(i) * time.Microsecond),
		}
		if voter.HasVoted {
			candidateID := int64(voter.CandidateID)
			row.CandidateID = &candidateID
		}
		rows = append(rows, row)
	}
	return rows
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "election_outbox"
}

func marshalEnvelope(envelope events.Envelope) ([]byte, error) {
	return json.Marshal(envelope)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
