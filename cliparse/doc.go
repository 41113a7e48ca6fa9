// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a validated Config:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Later sources win:

 1. Defaults()
 2. YAML file named by -c or CONFIG_FILE
 3. Environment variables
 4. Flags given on the command line

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: SQLite file URL or PostgreSQL connection string (required)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - LogLevel: debug, info, warn or error (default: info)
  - LogFormat: text or json (default: text)
  - CodeAttempts: session code draws before giving up (default: 32)
  - CloseStoryRetries: attempts for a contended story closure (default: 5)

# CLI Flags

	-c           YAML config file
	-p           Server port
	-d           Database URL
	-t           Database type
	-log-level   Log level
	-log-format  Log format

# Environment Variables

	PORT, DATABASE_URL, DATABASE_TYPE, LOG_LEVEL, LOG_FORMAT,
	CODE_ATTEMPTS, CLOSE_STORY_RETRIES, CONFIG_FILE

# YAML File

	port: 3318
	database_url: "file:poker.db"
	database_type: sqlite
	log_format: json

Unknown keys are rejected.

# Example

	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	slog.SetDefault(cfg.NewLogger(os.Stdout))

	conn, err := db.Open(cfg.Dialect(), cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(conn, cfg)
*/
package cliparse
