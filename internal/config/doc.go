// Package config provides configuration loading for cellviewer.
//
// # Configuration Sources
//
// Values are resolved in increasing order of precedence:
//
//	1. Default()
//	2. A YAML file (config.yaml or configs/config.yaml)
//	3. Environment variables prefixed with CELLVIEWER_
//
// # Environment Variables
//
// Each nested field maps to PREFIX_SECTION_FIELD:
//
//	CELLVIEWER_SERVER_PORT=9090
//	CELLVIEWER_STORAGE_DRIVER=memory
//	CELLVIEWER_STORAGE_DSN=/var/lib/cellviewer/cellviewer.db
//	CELLVIEWER_ANALYSIS_PERCENT_DECIMALS=2
//	CELLVIEWER_LOGGING_LEVEL=debug
//
// # Example File
//
//	server:
//	  port: 8080
//	storage:
//	  driver: sqlite
//	  dsn: data/cellviewer.db
//	analysis:
//	  histogram_bins: 400
package config
