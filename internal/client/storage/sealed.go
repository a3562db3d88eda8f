package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/careerkit/internal/cryptox"
)

// Sealed encrypts values before handing them to inner and decrypts on read.
// Keys and the change feed are left in clear.
func Sealed(inner Store, key []byte) Store {
	return &sealedStore{Store: inner, key: key}
}

type sealedStore struct {
	Store
	key []byte
}

func (s *sealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.Store.Get(ctx, key)
	if err != nil || v == nil {
		return v, err
	}
	plain, err := cryptox.Open(s.key, v)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return plain, nil
}

func (s *sealedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := cryptox.Seal(s.key, value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.Store.Set(ctx, key, sealed)
}
