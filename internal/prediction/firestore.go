package prediction

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
)

type firestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore adds each record as a new document in collection.
func NewFirestoreStore(client *firestore.Client, collection string) Store {
	return &firestoreStore{client: client, collection: collection}
}

func (s *firestoreStore) Append(ctx context.Context, rec Record) (string, error) {
	ref, _, err := s.client.Collection(s.collection).Add(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("add document to %s: %w", s.collection, err)
	}
	return ref.ID, nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
