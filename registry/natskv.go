package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// BucketName holds every service registration, keyed by logical service name.
const BucketName = "services"

type natsStore struct {
	kv jetstream.KeyValue
}

// OpenNATSStore binds the registry to its JetStream bucket, creating the
// bucket on first use.
func OpenNATSStore(ctx context.Context, nc *nats.Conn) (Store, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, BucketName)
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("failed to open bucket %q: %w", BucketName, err)
		}
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      BucketName,
			Description: "Service discovery records",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", BucketName, err)
		}
	}
	return &natsStore{kv: kv}, nil
}

func (s *natsStore) Create(ctx context.Context, key string, value []byte) error {
	_, err := s.kv.Create(ctx, key, value)
	if errors.Is(err, jetstream.ErrKeyExists) {
		return ErrKeyExists
	}
	return err
}

func (s *natsStore) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

// Update refreshes an existing key without ever recreating it: the write is
// guarded by the revision read here, so a Delete landing in between makes the
// broker reject it instead of resurrecting the record.
func (s *natsStore) Update(ctx context.Context, key string, value []byte) error {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.kv.Update(ctx, key, value, entry.Revision()); err != nil {
		return fmt.Errorf("update %q at revision %d: %w", key, entry.Revision(), err)
	}
	return nil
}

func (s *natsStore) Delete(ctx context.Context, key string) error {
	err := s.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}
	return err
}
