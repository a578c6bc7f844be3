package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"partsledger/internal/core/appctx"
	"partsledger/internal/core/id"
)

// Action classifies an activity log entry.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionReceive Action = "receive"
	ActionReverse Action = "reverse"
)

// Compression names the payload encoding.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// ActivityEntry is one activity log row.
type ActivityEntry struct {
	ID          id.ID           `db:"id"`
	ActorID     *id.ID          `db:"actor_id"`
	Action      Action          `db:"action"`
	EntityType  string          `db:"entity_type"`
	EntityID    id.ID           `db:"entity_id"`
	Payload     json.RawMessage `db:"payload"`
	Compression Compression     `db:"compression"`
	RecordedAt  time.Time       `db:"recorded_at"`
}

// ActivityLog records who changed what. Payloads above the threshold are
// zstd-compressed before storage.
type ActivityLog struct {
	txManager *TxManager
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder

	compressThreshold int
}

// NewActivityLog creates the activity log writer.
func NewActivityLog(txManager *TxManager) (*ActivityLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ActivityLog{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record stores one entry. The actor is taken from the request context when
// not set explicitly.
func (l *ActivityLog) Record(ctx context.Context, action Action, entityType string, entityID id.ID, payload map[string]any) error {
	entry := ActivityEntry{
		ID:          id.New(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Compression: CompressionNone,
		RecordedAt:  time.Now().UTC(),
	}
	if actor := appctx.ActorID(ctx); !id.IsNil(actor) {
		entry.ActorID = &actor
	}

	var body []byte
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal activity payload: %w", err)
		}
		body = raw
		if len(raw) > l.compressThreshold {
			body = l.encoder.EncodeAll(raw, nil)
			entry.Compression = CompressionZstd
		}
	}

	querier := l.txManager.GetQuerier(ctx)
	_, err := querier.Exec(ctx, `
		INSERT INTO activity_log
			(id, actor_id, action, entity_type, entity_id, payload, compression, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		body, entry.Compression, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// EntityHistory returns the latest entries for one entity, payloads
// decompressed.
func (l *ActivityLog) EntityHistory(ctx context.Context, entityType string, entityID id.ID, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, actor_id, action, entity_type, entity_id, payload, compression, recorded_at
		FROM activity_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY recorded_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		var body []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID,
			&body, &e.Compression, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}

		if e.Compression == CompressionZstd && len(body) > 0 {
			raw, err := l.decoder.DecodeAll(body, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress activity payload: %w", err)
			}
			body = raw
			e.Compression = CompressionNone
		}
		e.Payload = body

		entries = append(entries, e)
	}
	return entries, rows.Err()
}
