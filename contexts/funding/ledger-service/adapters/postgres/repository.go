package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"questfund/contexts/funding/ledger-service/domain/entities"
	domainerrors "questfund/contexts/funding/ledger-service/domain/errors"
	"questfund/contexts/funding/ledger-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	campaignCounter     = "campaign_id"
	contributionCounter = "contribution_id"
)

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

// CreateCampaign commits the campaign record, its challenge rows, and the
// campaign counter bump in one transaction: the id exists only if the record
// does.
func (r *Repository) CreateCampaign(ctx context.Context, campaign entities.Campaign) (entities.Campaign, error) {
	created := campaign
	created.Challenges = campaign.FreshChallenges()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, err := nextCounter(tx, campaignCounter)
		if err != nil {
			return err
		}
		created.CampaignID = id

		row := campaignModelFromEntity(created)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidCampaignInput
			}
			return err
		}
		for position, challenge := range created.Challenges {
			challengeRow := challengeModel{
				CampaignID:       created.CampaignID,
				Position:         position,
				KPI:              challenge.KPI,
				Points:           challenge.Points,
				MaxContributions: challenge.MaxContributions,
			}
			if err := tx.Create(&challengeRow).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return entities.Campaign{}, err
	}
	return created, nil
}

func (r *Repository) GetCampaign(ctx context.Context, campaignID uint64) (entities.Campaign, error) {
	var row campaignModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Campaign{}, domainerrors.ErrCampaignNotFound
		}
		return entities.Campaign{}, err
	}

	var challengeRows []challengeModel
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("position ASC").
		Find(&challengeRows).
		Error; err != nil {
		return entities.Campaign{}, err
	}
	return row.toEntity(challengeRows), nil
}

// CampaignsByAccount derives the per-initiator index by id order, which is
// identical to creation order because campaign ids are gapless and monotonic.
func (r *Repository) CampaignsByAccount(ctx context.Context, account string) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := r.db.WithContext(ctx).
		Model(&campaignModel{}).
		Where("initiator = ?", account).
		Order("campaign_id ASC").
		Pluck("campaign_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// RecordContributions validates and applies the whole batch inside one
// transaction. Per record the checks run in order: campaign existence,
// challenge index validity, amount positivity; the first failure rolls the
// batch back with no rows written and no counter movement.
func (r *Repository) RecordContributions(ctx context.Context, records []entities.Contribution) ([]entities.Contribution, error) {
	recorded := make([]entities.Contribution, len(records))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, record := range records {
			var campaignRow campaignModel
			err := tx.
				Where("campaign_id = ?", record.CampaignID).
				First(&campaignRow).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.NewInvalidContribution(domainerrors.FieldCampaignID)
				}
				return err
			}

			var challengeRow challengeModel
			err = tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("campaign_id = ? AND position = ?", record.CampaignID, record.ChallengeIndex).
				First(&challengeRow).
				Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domainerrors.NewInvalidContribution(domainerrors.FieldChallengeIndex)
				}
				return err
			}
			if record.Amount == 0 {
				return domainerrors.NewInvalidContribution(domainerrors.FieldAmount)
			}

			err = tx.Model(&challengeModel{}).
				Where("campaign_id = ? AND position = ?", record.CampaignID, record.ChallengeIndex).
				Update("contributions_spent", gorm.Expr("contributions_spent + ?", record.Amount)).
				Error
			if err != nil {
				return err
			}

			id, err := nextCounter(tx, contributionCounter)
			if err != nil {
				return err
			}
			record.ContributionID = id
			row := contributionModelFromEntity(record)
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			recorded[i] = record
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (r *Repository) GetContribution(ctx context.Context, contributionID uint64) (entities.Contribution, error) {
	var row contributionModel
	err := r.db.WithContext(ctx).
		Where("contribution_id = ?", contributionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contribution{}, domainerrors.ErrContributionNotFound
		}
		return entities.Contribution{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CampaignContributions(ctx context.Context, campaignID uint64) ([]entities.Contribution, error) {
	var rows []contributionModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("contribution_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]entities.Contribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// TransferFrom moves token balance between accounts transactionally. It
// backs the escrow collaborator when the token ledger lives in the same
// database as the campaign ledger.
func (r *Repository) TransferFrom(ctx context.Context, token string, owner string, destination string, amount uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ownerRow tokenBalanceModel
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token = ? AND account = ?", token, owner).
			First(&ownerRow).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("insufficient balance")
			}
			return err
		}
		if ownerRow.Balance < amount {
			return errors.New("insufficient balance")
		}

		err = tx.Model(&tokenBalanceModel{}).
			Where("token = ? AND account = ?", token, owner).
			Update("balance", gorm.Expr("balance - ?", amount)).
			Error
		if err != nil {
			return err
		}

		destinationRow := tokenBalanceModel{Token: token, Account: destination, Balance: amount}
		createResult := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token"}, {Name: "account"}},
			DoUpdates: clause.Assignments(map[string]any{"balance": gorm.Expr("token_balances.balance + ?", amount)}),
		}).Create(&destinationRow)
		return createResult.Error
	})
}

func (r *Repository) GetRecord(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	if !row.ExpiresAt.After(now) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: row.ResponsePayload,
		ExpiresAt:       row.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             record.Key,
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt,
	}
	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).
		Where("key = ?", row.Key).
		First(&existing).
		Error; err != nil {
		return err
	}
	if existing.RequestHash != row.RequestHash || !bytes.Equal(existing.ResponsePayload, row.ResponsePayload) {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return err
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrIdempotencyKeyConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
}

// nextCounter bumps a named gapless counter inside the caller's transaction.
// The row lock ties counter movement to the commit that consumes the id.
func nextCounter(tx *gorm.DB, name string) (uint64, error) {
	var row counterModel
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ?", name).
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = counterModel{Name: name}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	row.Value++
	err = tx.Model(&counterModel{}).
		Where("name = ?", name).
		Update("value", row.Value).
		Error
	if err != nil {
		return 0, err
	}
	return row.Value, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
