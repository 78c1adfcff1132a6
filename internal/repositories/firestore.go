package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// maxFirestoreBatch is the Firestore limit on writes per commit
const maxFirestoreBatch = 500

// FirestoreRepository implements domain.BatchWriter using Firestore
// Uses pspReference and eventCode as document ID so redelivered notifications overwrite
type FirestoreRepository struct {
	client     *firestore.Client
	collection string
	ids        *snowflake.Node
}

// NewFirestoreRepository creates a new Firestore repository
func NewFirestoreRepository(client *firestore.Client, collection string, ids *snowflake.Node) *FirestoreRepository {
	if collection == "" {
		collection = "transactions"
	}
	return &FirestoreRepository{
		client:     client,
		collection: collection,
		ids:        ids,
	}
}

// WriteBatch stores the records with batched commits
func (r *FirestoreRepository) WriteBatch(ctx context.Context, records []domain.NotificationRecord) error {
	receivedAt := time.Now().Unix()
	coll := r.client.Collection(r.collection)

	for start := 0; start < len(records); start += maxFirestoreBatch {
		end := min(start+maxFirestoreBatch, len(records))

		batch := r.client.Batch()
		for _, record := range records[start:end] {
			batch.Set(coll.Doc(documentID(record, r.ids)), documentData(record, receivedAt))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("failed to write transactions to Firestore: %w", err)
		}
	}

	return nil
}

// documentID derives a stable key from the notification, falling back to a
// generated ID when pspReference is missing
func documentID(record domain.NotificationRecord, ids *snowflake.Node) string {
	ref := record.String(domain.FieldPSPReference)
	if ref == "" {
		return ids.Generate().String()
	}
	key := ref
	if code := record.String(domain.FieldEventCode); code != "" {
		key += "_" + code
	}
	return strings.NewReplacer("/", "_", ".", "_", "#", "_", "$", "_", "[", "_", "]", "_").Replace(key)
}

// documentData converts a record into values both Firebase stores accept
func documentData(record domain.NotificationRecord, receivedAt int64) map[string]interface{} {
	data := make(map[string]interface{}, len(record)+1)
	for k, v := range record {
		data[k] = storeValue(v)
	}
	data["receivedAt"] = receivedAt
	return data
}

func storeValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			out[k] = storeValue(child)
		}
		return out
	case []any:
		out := make([]interface{}, len(t))
		for i, child := range t {
			out[i] = storeValue(child)
		}
		return out
	default:
		return v
	}
}
