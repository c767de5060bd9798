package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"

	"github.com/itohio/wavedaq/pkg/capture"
	"github.com/itohio/wavedaq/pkg/config"
)

// Archive stores collected windows in ClickHouse for long-term analysis.
type Archive struct {
	conn driver.Conn
}

// New creates a new ClickHouse connection and initializes the schema.
func New(cfg config.ArchiveConfig) (*Archive, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	log.Printf("Connected to ClickHouse at %s", cfg.Addr)

	a := &Archive{conn: conn}

	if err := a.InitSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return a, nil
}

// InitSchema creates the necessary tables if they don't exist.
func (a *Archive) InitSchema() error {
	ctx := context.Background()

	for _, tableSQL := range AllTables() {
		if err := a.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// SaveWindows appends every window of one session as a single batch.
func (a *Archive) SaveWindows(ctx context.Context, sessionID string, sampleRate int, windows []capture.Window) error {
	if len(windows) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, "INSERT INTO waveform_windows")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, w := range windows {
		collectedAt := w.CollectedAt
		if collectedAt.IsZero() {
			collectedAt = time.Now()
		}
		err := batch.Append(
			collectedAt,
			sessionID,
			w.Label,
			uint32(w.Index),
			uint32(sampleRate),
			toInt32(w.Samples),
		)
		if err != nil {
			return fmt.Errorf("failed to append window: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Archived %d windows to ClickHouse (session %s)", len(windows), sessionID)
	return nil
}

// Close closes the ClickHouse connection.
func (a *Archive) Close() error {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
	}
	return nil
}

func toInt32(samples []int) []int32 {
	out := make([]int32, len(samples))
	for i, v := range samples {
		out[i] = int32(v)
	}
	return out
}
