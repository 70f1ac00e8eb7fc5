// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"

	"github.com/relabs-tech/posture_sense/internal/posture"
)

// Store persists calibration offsets across restarts. Load returns
// ErrNoRecord when nothing usable has been saved.
type Store interface {
	Load(ctx context.Context) (posture.Offsets, error)
	Save(ctx context.Context, o posture.Offsets) error
}

// FileStore keeps the record in a single file.
type FileStore struct {
	Path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context) (posture.Offsets, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return posture.Offsets{}, ErrNoRecord
	}
	if err != nil {
		return posture.Offsets{}, fmt.Errorf("calibration: read %s: %w", s.Path, err)
	}
	rec, err := DecodeRecord(b)
	if err != nil {
		return posture.Offsets{}, err
	}
	return rec.Offsets, nil
}

// Save writes the record to a temporary file and renames it over Path so a
// reader never sees a partially written record.
func (s *FileStore) Save(_ context.Context, o posture.Offsets) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("calibration: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("calibration: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(EncodeRecord(o)); err != nil {
		tmp.Close()
		return fmt.Errorf("calibration: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("calibration: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("calibration: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("calibration: replace %s: %w", s.Path, err)
	}
	return nil
}

// RedisKeyPrefix namespaces calibration records per device.
const RedisKeyPrefix = "posture:calibration:"

// RedisStore keeps the record under RedisKeyPrefix + deviceID.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore returns a store for deviceID on client.
func NewRedisStore(client *redis.Client, deviceID string) *RedisStore {
	return &RedisStore{client: client, key: RedisKeyPrefix + deviceID}
}

func (s *RedisStore) Load(ctx context.Context) (posture.Offsets, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return posture.Offsets{}, ErrNoRecord
	}
	if err != nil {
		return posture.Offsets{}, fmt.Errorf("calibration: redis get %s: %w", s.key, err)
	}
	rec, err := DecodeRecord(b)
	if err != nil {
		return posture.Offsets{}, err
	}
	return rec.Offsets, nil
}

// Save stores the whole record with a single SET.
func (s *RedisStore) Save(ctx context.Context, o posture.Offsets) error {
	if err := s.client.Set(ctx, s.key, EncodeRecord(o), 0).Err(); err != nil {
		return fmt.Errorf("calibration: redis set %s: %w", s.key, err)
	}
	return nil
}
