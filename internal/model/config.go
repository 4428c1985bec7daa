package model

import "time"

// Config holds everything a run needs. It is built once at startup and shared
// read-only by every file worker.
type Config struct {
	MongoHost       string `json:"mongodb_host" mapstructure:"mongodb_host"`
	MongoPort       int    `json:"mongodb_port" mapstructure:"mongodb_port"`
	MongoDatabase   string `json:"mongodb_database" mapstructure:"mongodb_database"`
	MongoCollection string `json:"mongodb_collection" mapstructure:"mongodb_collection"`
	MongoUsername   string `json:"mongodb_username" mapstructure:"mongodb_username"`
	MongoPassword   string `json:"-" mapstructure:"mongodb_password"`

	MaxWorkers         int           `json:"max_threads" mapstructure:"max_threads"`                   // <= 0 means one worker per file
	MemoryLimitPercent int           `json:"memory_limit_percent" mapstructure:"memory_limit_percent"` // 0 disables the admission gate
	MemoryPollInterval time.Duration `json:"memory_poll_interval" mapstructure:"-"`

	InputDir      string `json:"input_dir" mapstructure:"input_dir"`
	MappingFile   string `json:"mapping_file" mapstructure:"mapping_file"`
	LogFile       string `json:"log_file" mapstructure:"log_file"`
	LedgerPath    string `json:"ledger_path" mapstructure:"ledger_path"` // empty disables the ledger
	ReportFile    string `json:"report_file" mapstructure:"report_file"`
	ProgressEvery int    `json:"progress_every" mapstructure:"progress_every"`
	DryRun        bool   `json:"dry_run" mapstructure:"dry_run"`
}

// PoolSize returns the number of concurrent file workers for a run over
// fileCount files.
func (c *Config) PoolSize(fileCount int) int {
	if fileCount <= 0 {
		return 0
	}
	if c.MaxWorkers <= 0 || c.MaxWorkers > fileCount {
		return fileCount
	}
	return c.MaxWorkers
}
