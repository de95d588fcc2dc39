package sink

import (
	"context"
	"fmt"
	"io"
	"os"

	"sjsage522/xbdealworker/config"
	"sjsage522/xbdealworker/logger"
)

// Sink is a tabular destination organized as worksheets
type Sink interface {
	// ReplaceAll clears the worksheet and writes the rows from the top-left cell
	ReplaceAll(ctx context.Context, worksheet string, rows [][]interface{}) error

	// WriteMeta writes a single metadata cell, e.g. "B2"
	WriteMeta(ctx context.Context, cell string, value interface{}) error

	// Close releases the underlying connection
	Close() error
}

// New creates the sink selected by the configuration. The table sink
// writes to out, which defaults to stdout.
func New(ctx context.Context, cfg *config.Config, out io.Writer) (Sink, error) {
	if out == nil {
		out = os.Stdout
	}

	var (
		s   Sink
		err error
	)
	switch cfg.Sink {
	case "table":
		s = NewTableSink(out, cfg.MetaWorksheet)
	case "redis":
		s, err = NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.DestinationID, cfg.MetaWorksheet)
	case "sql":
		s, err = NewSQLSink(ctx, cfg.SQLDriver, cfg.SQLDSN, cfg.DestinationID, cfg.MetaWorksheet)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Sink)
	}
	if err != nil {
		return nil, err
	}

	logger.ForSink(cfg.Sink).Info().
		Str("destination", cfg.DestinationID).
		Str("worksheet", cfg.Worksheet).
		Msg("Sink ready")
	return s, nil
}
