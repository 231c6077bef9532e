package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rsvpbot/internal/entities"
)

type DeliveryRepository struct {
	db *pgxpool.Pool
}

// DeliveryRecord is one stored delivery_log row.
type DeliveryRecord struct {
	ID                int64     `json:"id"`
	InternalID        int64     `json:"internal_id"`
	DisplayName       string    `json:"display_name"`
	PhoneTo           string    `json:"phone_to"`
	TemplateName      string    `json:"template_name"`
	LanguageCode      string    `json:"language_code"`
	Status            string    `json:"status"`
	ProviderMessageID string    `json:"provider_message_id"`
	Error             string    `json:"error"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewDeliveryRepository(db *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{db: db}
}

func (r *DeliveryRepository) Insert(e entities.DeliveryEntry) error {
	_, err := r.db.Exec(context.Background(),
		`INSERT INTO delivery_log
		 (internal_id, display_name, phone_to, template_name, language_code, status, provider_message_id, error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.InternalID, e.DisplayName, e.PhoneTo, e.TemplateName, e.LanguageCode,
		e.Status, e.ProviderMessageID, e.Error)
	return err
}

// Recent returns the latest delivery rows, newest first.
func (r *DeliveryRepository) Recent(limit int) ([]DeliveryRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := r.db.Query(context.Background(),
		`SELECT id, internal_id, display_name, phone_to, template_name, language_code,
		        status, provider_message_id, error, created_at
		 FROM delivery_log ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DeliveryRecord
	for rows.Next() {
		var rec DeliveryRecord
		err := rows.Scan(&rec.ID, &rec.InternalID, &rec.DisplayName, &rec.PhoneTo,
			&rec.TemplateName, &rec.LanguageCode, &rec.Status, &rec.ProviderMessageID,
			&rec.Error, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
