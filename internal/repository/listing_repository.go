package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-bot/internal/models"
)

// ListingRepository отвечает за работу с объявлениями.
type ListingRepository struct {
	db *sqlx.DB
}

// Ошибки уровня репозитория.
var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrClaimConflict возвращается, когда условное обновление не затронуло
	// ни одной строки: объявление уже занято или не в статусе OPEN.
	ErrClaimConflict = errors.New("listing already claimed")
)

// NewListingRepository создаёт новый экземпляр.
func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

const listingColumns = `
	id, seller_id, kind, title, category, price, negotiable, status,
	claimant_id, negotiation_channel_id, negotiation_panel_message_id,
	public_channel_id, public_message_id, created_at, updated_at
`

// GetByID возвращает объявление по идентификатору.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if err := r.db.GetContext(ctx, &listing, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("listing repository: get by id %w", err)
	}
	return &listing, nil
}

// Insert сохраняет новое объявление.
func (r *ListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	query := `
		INSERT INTO listings (id, seller_id, kind, title, category, price, negotiable, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	row := r.db.QueryRowxContext(ctx, query,
		listing.ID, listing.SellerID, listing.Kind, listing.Title,
		listing.Category, listing.Price, listing.Negotiable, listing.Status)
	if err := row.Scan(&listing.CreatedAt, &listing.UpdatedAt); err != nil {
		return fmt.Errorf("listing repository: insert %w", err)
	}
	return nil
}

// SetPublicMessageRef сохраняет ссылку на опубликованную панель продажи.
// Устанавливается один раз после создания, дальше панель редактируется на месте.
func (r *ListingRepository) SetPublicMessageRef(ctx context.Context, id uuid.UUID, channelID, messageID string) error {
	query := `
		UPDATE listings
		SET public_channel_id = $2, public_message_id = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execForOne(ctx, query, id, channelID, messageID)
}

// Claim назначает покупателя условным обновлением: строка занимается
// только если сейчас свободна и открыта. Ноль затронутых строк означает,
// что объявление либо отсутствует, либо уже занято — различаем отдельным чтением.
func (r *ListingRepository) Claim(ctx context.Context, id uuid.UUID, claimantID string) error {
	query := `
		UPDATE listings
		SET claimant_id = $2, status = $3, updated_at = NOW()
		WHERE id = $1 AND claimant_id IS NULL AND status = $4
	`
	res, err := r.db.ExecContext(ctx, query, id, claimantID, models.ListingStatusNegotiating, models.ListingStatusOpen)
	if err != nil {
		return fmt.Errorf("listing repository: claim %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("listing repository: claim rows affected %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return ErrClaimConflict
	}
	return nil
}

// SetNegotiationRefs сохраняет ссылки на приватный канал и панель управления.
func (r *ListingRepository) SetNegotiationRefs(ctx context.Context, id uuid.UUID, channelID, panelMessageID string) error {
	query := `
		UPDATE listings
		SET negotiation_channel_id = $2, negotiation_panel_message_id = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execForOne(ctx, query, id, channelID, panelMessageID)
}

// ReleaseClaim снимает покупателя и возвращает объявление в OPEN.
// Проданные объявления не трогаем: SOLD терминален.
func (r *ListingRepository) ReleaseClaim(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE listings
		SET claimant_id = NULL, negotiation_channel_id = NULL,
		    negotiation_panel_message_id = NULL, status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $3
	`
	return r.execForOne(ctx, query, id, models.ListingStatusOpen, models.ListingStatusSold)
}

// MarkSold переводит объявление в терминальный статус. Поля переговоров
// сохраняются как исторический указатель на канал аудита.
func (r *ListingRepository) MarkSold(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE listings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.execForOne(ctx, query, id, models.ListingStatusSold)
}

// UpdateDetails обновляет редактируемые поля объявления.
func (r *ListingRepository) UpdateDetails(ctx context.Context, id uuid.UUID, title, category string, price int64, negotiable string) error {
	query := `
		UPDATE listings
		SET title = $2, category = $3, price = $4, negotiable = $5, updated_at = NOW()
		WHERE id = $1
	`
	return r.execForOne(ctx, query, id, title, category, price, negotiable)
}

// UpdatePrice обновляет только цену (быстрое редактирование из панели управления).
func (r *ListingRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price int64) error {
	query := `
		UPDATE listings
		SET price = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.execForOne(ctx, query, id, price)
}

// List возвращает объявления для ops панели, новые первыми.
func (r *ListingRepository) List(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var listings []models.Listing
	query := `SELECT ` + listingColumns + ` FROM listings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &listings, query, limit, offset); err != nil {
		return nil, fmt.Errorf("listing repository: list %w", err)
	}
	return listings, nil
}

// execForOne выполняет обновление и требует ровно одну затронутую строку.
func (r *ListingRepository) execForOne(ctx context.Context, query string, id uuid.UUID, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, append([]interface{}{id}, args...)...)
	if err != nil {
		return fmt.Errorf("listing repository: update %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("listing repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrListingNotFound
	}
	return nil
}
