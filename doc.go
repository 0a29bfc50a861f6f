// Package ytsheet keeps a Google Sheets worksheet in step with the recent
// uploads of a YouTube channel.
//
// Overview
//
// Each sync cycle fetches the newest uploads of one channel from the YouTube
// Data API, reads the video id column of the sheet, and then:
//
//   - appends a row for every video not yet in the sheet, oldest first
//   - rewrites views, likes and comments of the rows already present
//
// Rows never move once written. Date, title and type cells are written once.
//
// Sheet layout
//
//	A date (2006-01-02 15:04, UTC)   B title   C type (Short/Video)
//	D views   E likes   F comments   G-J reserved   K video id
//
// A video is a Short when its duration is 60 seconds or less.
//
// Quick Start
//
// Run a single cycle:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := ytsheet.SyncOnce(ctx, cfg, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("%d rows added, %d cells updated\n", result.RowsAdded, result.CellsUpdated)
//
// Run on a schedule, as the cli binary does:
//
//	s, closer, err := ytsheet.NewSyncer(ctx, cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer closer.Close()
//	s.Run(ctx)
//
// Configuration
//
// Settings load from, in order of priority:
//
//   1. Environment variables, including a .env file in the working directory
//   2. Config file (ytsheet.json or ~/.config/ytsheet/ytsheet.json)
//   3. Default values
//
// Environment variables:
//
//   - YOUTUBE_API_KEY: Data API key (required)
//   - CHANNEL_ID: channel to track (required)
//   - SERVICE_ACCOUNT_FILE: service account JSON key for Sheets
//   - SPREADSHEET_ID, SHEET_NAME: target spreadsheet and worksheet
//   - YTSHEET_TABLE_FILE: write to a local CSV file instead of Sheets
//   - YTSHEET_FETCH_LIMIT: uploads fetched per cycle (default 10)
//   - YTSHEET_INTERVAL, YTSHEET_POLL_TICK: schedule (default 1h, checked every 1m)
//   - YTSHEET_MAX_RETRIES: extra attempts per API call (default 0)
//   - YTSHEET_LOG_LEVEL, YTSHEET_LOG_FORMAT: logging
//
// Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - reconcile: the pure merge of fetched records against the sheet
//   - youtube: Data API fetcher
//   - sheets: Google Sheets and CSV tables
//   - syncer: cycle and scheduler
//   - config: configuration management
//
package ytsheet
