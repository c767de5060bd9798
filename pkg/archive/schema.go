package archive

// SQL schema for the ClickHouse window archive

const (
	// WaveformWindowsTableSQL creates the waveform_windows table
	WaveformWindowsTableSQL = `
		CREATE TABLE IF NOT EXISTS waveform_windows (
			collected_at DateTime64(3),
			session_id String,
			label String,
			window_index UInt32,
			sample_rate UInt32,
			samples Array(Int32)
		) ENGINE = MergeTree()
		ORDER BY (label, collected_at)
		PARTITION BY toYYYYMM(collected_at)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		WaveformWindowsTableSQL,
	}
}
