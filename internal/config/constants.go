package config

import "time"

// Application constants
const (
	AppName    = "cellviewer"
	AppVersion = "1.0.0"

	// Storage drivers
	StorageMemory = "memory"
	StorageSQLite = "sqlite"

	DefaultDatabaseFile = "data/cellviewer.db"
	DefaultLogFile      = "logs/cellviewer.log"
	DefaultMaxUploadMB  = 100

	// Analysis
	DefaultPercentDecimals = 1
	DefaultHistogramBins   = 400
	DefaultWorkers         = 4

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Timeouts
	DefaultRequestTimeout = 2 * time.Minute
	WebSocketPingPeriod   = 30 * time.Second
	WebSocketPongWait     = 60 * time.Second
)
