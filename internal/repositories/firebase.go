package repositories

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/bwmarrin/snowflake"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// FirebaseRepository implements domain.BatchWriter using Firebase Realtime Database
type FirebaseRepository struct {
	client *db.Client
	path   string
	ids    *snowflake.Node
}

// NewFirebaseRepository creates a new Firebase repository
func NewFirebaseRepository(client *db.Client, path string, ids *snowflake.Node) *FirebaseRepository {
	if path == "" {
		path = "transactions"
	}
	return &FirebaseRepository{
		client: client,
		path:   path,
		ids:    ids,
	}
}

// WriteBatch stores all records with a single multi-path update
func (r *FirebaseRepository) WriteBatch(ctx context.Context, records []domain.NotificationRecord) error {
	ref := r.client.NewRef(r.path)

	updates := make(map[string]interface{}, len(records))
	receivedAt := time.Now().UnixMilli()
	for _, record := range records {
		// snowflake IDs sort by arrival like push keys
		updates[r.ids.Generate().String()] = documentData(record, receivedAt)
	}

	if err := ref.Update(ctx, updates); err != nil {
		return fmt.Errorf("failed to write transactions: %w", err)
	}

	return nil
}
