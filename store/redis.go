// Copyright © 2025-2026 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package store

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/go-core-stack/slowmode/errors"
	"github.com/go-core-stack/slowmode/monitor"
)

const (
	// default prefix of every key written by the store
	DefaultRedisPrefix = "slowmode"

	// optimistic transactions are retried this many times when a
	// watched key changes underneath
	redisTxRetries = 3

	fieldGroup       = "group"
	fieldPaceMin     = "paceMin"
	fieldPaceMax     = "paceMax"
	fieldWindow      = "windowCapacity"
	fieldSensitivity = "sensitivity"
	fieldMonitoring  = "monitoring"
)

// Redis stores one hash per channel plus sets indexing the monitored
// channels, globally and per group. Every operation is a single
// MULTI/EXEC transaction guarded by WATCH on the channel hash.
type Redis struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger
}

// RedisOption configures a Redis store
type RedisOption func(*Redis)

// WithKeyPrefix sets the prefix of the keys written by the store
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

// WithRedisLogger sets the logger, defaults to a no-op logger
func WithRedisLogger(logger *zap.Logger) RedisOption {
	return func(r *Redis) { r.logger = logger }
}

// NewRedis creates a store over rdb
func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		prefix: DefaultRedisPrefix,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) channelKey(id string) string {
	return r.prefix + ":channel:" + id
}

func (r *Redis) monitoringKey() string {
	return r.prefix + ":monitoring"
}

func (r *Redis) groupKey(groupID string) string {
	return r.prefix + ":group:" + groupID + ":monitoring"
}

func encodeConfig(cfg *monitor.EntityConfig) map[string]any {
	return map[string]any{
		fieldGroup:       cfg.GroupID,
		fieldPaceMin:     cfg.PaceMin,
		fieldPaceMax:     cfg.PaceMax,
		fieldWindow:      cfg.WindowCapacity,
		fieldSensitivity: strconv.FormatFloat(cfg.Sensitivity, 'g', -1, 64),
		fieldMonitoring:  strconv.FormatBool(cfg.Monitoring),
	}
}

func decodeConfig(id string, h map[string]string) (*monitor.EntityConfig, error) {
	cfg := &monitor.EntityConfig{
		EntityID: id,
		GroupID:  h[fieldGroup],
	}
	var err error
	if cfg.PaceMin, err = strconv.Atoi(h[fieldPaceMin]); err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "invalid "+fieldPaceMin+" of channel "+id)
	}
	if cfg.PaceMax, err = strconv.Atoi(h[fieldPaceMax]); err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "invalid "+fieldPaceMax+" of channel "+id)
	}
	if cfg.WindowCapacity, err = strconv.Atoi(h[fieldWindow]); err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "invalid "+fieldWindow+" of channel "+id)
	}
	if cfg.Sensitivity, err = strconv.ParseFloat(h[fieldSensitivity], 64); err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "invalid "+fieldSensitivity+" of channel "+id)
	}
	if cfg.Monitoring, err = strconv.ParseBool(h[fieldMonitoring]); err != nil {
		return nil, errors.WithCause(errors.InvalidArgument, err, "invalid "+fieldMonitoring+" of channel "+id)
	}
	return cfg, nil
}

// watch runs fn in an optimistic transaction on the hash of a channel
func (r *Redis) watch(ctx context.Context, id string, fn func(tx *redis.Tx) error) error {
	key := r.channelKey(id)
	var err error
	for range redisTxRetries {
		err = r.rdb.Watch(ctx, fn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		r.logger.Debug("retrying redis transaction", zap.String("entity", id))
	}
	return err
}

// index adds or removes a channel from the monitoring sets
func (r *Redis) index(ctx context.Context, pipe redis.Pipeliner, id, groupID string, monitoring bool) {
	if monitoring {
		pipe.SAdd(ctx, r.monitoringKey(), id)
		pipe.SAdd(ctx, r.groupKey(groupID), id)
	} else {
		pipe.SRem(ctx, r.monitoringKey(), id)
		pipe.SRem(ctx, r.groupKey(groupID), id)
	}
}

func (r *Redis) ListMonitoring(ctx context.Context) ([]*monitor.EntityConfig, error) {
	ids, err := r.rdb.SMembers(ctx, r.monitoringKey()).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.channelKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	list := make([]*monitor.EntityConfig, 0, len(ids))
	for i, id := range ids {
		h := cmds[i].Val()
		if len(h) == 0 {
			// index entry without a hash, dropped on the next write
			continue
		}
		cfg, err := decodeConfig(id, h)
		if err != nil {
			return nil, err
		}
		if cfg.Monitoring {
			list = append(list, cfg)
		}
	}
	return list, nil
}

func (r *Redis) ListGroupMonitoring(ctx context.Context, groupID string) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, r.groupKey(groupID)).Result()
	if err != nil {
		return nil, err
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Redis) Get(ctx context.Context, entityID string) (*monitor.EntityConfig, error) {
	h, err := r.rdb.HGetAll(ctx, r.channelKey(entityID)).Result()
	if err != nil {
		return nil, err
	}
	if len(h) == 0 {
		return nil, errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
	}
	return decodeConfig(entityID, h)
}

func (r *Redis) Insert(ctx context.Context, cfg *monitor.EntityConfig) error {
	key := r.channelKey(cfg.EntityID)
	return r.watch(ctx, cfg.EntityID, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n != 0 {
			return errors.Wrapf(errors.AlreadyExists, "channel %s already exists", cfg.EntityID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeConfig(cfg))
			if cfg.Monitoring {
				r.index(ctx, pipe, cfg.EntityID, cfg.GroupID, true)
			}
			return nil
		})
		return err
	})
}

func (r *Redis) SetMonitoring(ctx context.Context, entityID string, monitoring bool) error {
	key := r.channelKey(entityID)
	return r.watch(ctx, entityID, func(tx *redis.Tx) error {
		group, err := tx.HGet(ctx, key, fieldGroup).Result()
		if errors.Is(err, redis.Nil) {
			return errors.Wrapf(errors.NotFound, "channel %s not found", entityID)
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldMonitoring, strconv.FormatBool(monitoring))
			r.index(ctx, pipe, entityID, group, monitoring)
			return nil
		})
		return err
	})
}

func (r *Redis) UpdateFields(ctx context.Context, cfg *monitor.EntityConfig) error {
	key := r.channelKey(cfg.EntityID)
	return r.watch(ctx, cfg.EntityID, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if n == 0 {
				pipe.HSet(ctx, key, encodeConfig(cfg))
				if cfg.Monitoring {
					r.index(ctx, pipe, cfg.EntityID, cfg.GroupID, true)
				}
				return nil
			}
			pipe.HSet(ctx, key,
				fieldPaceMin, cfg.PaceMin,
				fieldPaceMax, cfg.PaceMax,
				fieldWindow, cfg.WindowCapacity,
				fieldSensitivity, strconv.FormatFloat(cfg.Sensitivity, 'g', -1, 64))
			return nil
		})
		return err
	})
}
