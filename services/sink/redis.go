package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	crawlerrors "sjsage522/xbdealworker/pkg/errors"
)

// RedisSink stores each worksheet as a list of JSON encoded rows and the
// meta worksheet as a hash keyed by cell
type RedisSink struct {
	client        *redis.Client
	destination   string
	metaWorksheet string
}

// NewRedisSink connects to Redis and checks the connection
func NewRedisSink(ctx context.Context, addr string, db int, destination, metaWorksheet string) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, crawlerrors.NewSink("redis", "connect "+addr, err)
	}

	return &RedisSink{
		client:        client,
		destination:   destination,
		metaWorksheet: metaWorksheet,
	}, nil
}

// WorksheetKey returns the key holding a worksheet
func (s *RedisSink) WorksheetKey(worksheet string) string {
	return fmt.Sprintf("sheet:%s:%s", s.destination, worksheet)
}

// ReplaceAll swaps the worksheet content in a single transaction
func (s *RedisSink) ReplaceAll(ctx context.Context, worksheet string, rows [][]interface{}) error {
	encoded := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row)
		if err != nil {
			return crawlerrors.NewSink("redis", "encode row", err)
		}
		encoded = append(encoded, string(data))
	}

	key := s.WorksheetKey(worksheet)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(encoded) > 0 {
			pipe.RPush(ctx, key, encoded...)
		}
		return nil
	})
	if err != nil {
		return crawlerrors.NewSink("redis", "replace "+key, err)
	}
	return nil
}

// WriteMeta sets one cell of the meta worksheet
func (s *RedisSink) WriteMeta(ctx context.Context, cell string, value interface{}) error {
	key := s.WorksheetKey(s.metaWorksheet)
	if err := s.client.HSet(ctx, key, cell, fmt.Sprint(value)).Err(); err != nil {
		return crawlerrors.NewSink("redis", "write meta "+cell, err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisSink) Close() error {
	return s.client.Close()
}
