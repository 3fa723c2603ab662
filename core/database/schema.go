package database

import "database/sql"

// Migrations defines the versioned schema for the screenshot index.
//
// The search_index FTS5 table is a standalone denormalized mirror of the
// searchable screenshot columns, kept synchronized by the three triggers
// below. Derived rows (search_terms, search_index) are always recomputable
// from the screenshots table alone.
//
// processing_log rows reference screenshots with ON DELETE CASCADE: when a
// record is administratively deleted, its log history goes with it. Move
// entries logged before indexing carry a NULL screenshot_id and survive
// any deletion.
var Migrations = []Migration{
	{
		Version:     1,
		Description: "screenshot index schema",
		Up:          migrateV1,
	},
	{
		Version:     2,
		Description: "user corrections",
		Up:          migrateV2,
	},
}

func migrateV1(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS screenshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			original_filename TEXT NOT NULL,
			current_filename TEXT NOT NULL,
			file_path TEXT NOT NULL UNIQUE,
			file_hash TEXT NOT NULL UNIQUE,
			file_size_bytes INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			format TEXT NOT NULL,
			created_date TIMESTAMP NOT NULL,
			processed_date TIMESTAMP NOT NULL,
			category TEXT NOT NULL,
			keywords TEXT NOT NULL,
			ocr_text TEXT,
			vision_description TEXT,
			confidence REAL NOT NULL,
			thumbnail BLOB,
			tags TEXT,
			CONSTRAINT valid_confidence CHECK (confidence >= 0.0 AND confidence <= 1.0)
		)`,

		`CREATE TABLE IF NOT EXISTS search_terms (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			screenshot_id INTEGER NOT NULL,
			term TEXT NOT NULL,
			weight REAL DEFAULT 1.0,
			FOREIGN KEY (screenshot_id) REFERENCES screenshots(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_search_terms_term ON search_terms(term)`,
		`CREATE INDEX IF NOT EXISTS idx_search_terms_screenshot ON search_terms(screenshot_id)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS search_index USING fts5(
			screenshot_id UNINDEXED,
			original_filename,
			ocr_text,
			vision_description,
			keywords,
			tags
		)`,

		`CREATE TRIGGER IF NOT EXISTS screenshots_ai AFTER INSERT ON screenshots BEGIN
			INSERT INTO search_index(screenshot_id, original_filename, ocr_text, vision_description, keywords, tags)
			VALUES (new.id, new.original_filename, new.ocr_text, new.vision_description, new.keywords, new.tags);
		END`,

		`CREATE TRIGGER IF NOT EXISTS screenshots_ad AFTER DELETE ON screenshots BEGIN
			DELETE FROM search_index WHERE screenshot_id = old.id;
		END`,

		`CREATE TRIGGER IF NOT EXISTS screenshots_au AFTER UPDATE ON screenshots BEGIN
			UPDATE search_index SET
				original_filename = new.original_filename,
				ocr_text = new.ocr_text,
				vision_description = new.vision_description,
				keywords = new.keywords,
				tags = new.tags
			WHERE screenshot_id = new.id;
		END`,

		`CREATE TABLE IF NOT EXISTS processing_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			screenshot_id INTEGER,
			operation TEXT NOT NULL,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			old_path TEXT,
			new_path TEXT,
			old_filename TEXT,
			new_filename TEXT,
			status TEXT NOT NULL,
			error_message TEXT,
			FOREIGN KEY (screenshot_id) REFERENCES screenshots(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_category ON screenshots(category)`,
		`CREATE INDEX IF NOT EXISTS idx_created_date ON screenshots(created_date)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_date ON screenshots(processed_date)`,
		`CREATE INDEX IF NOT EXISTS idx_confidence ON screenshots(confidence)`,
		`CREATE INDEX IF NOT EXISTS idx_file_hash ON screenshots(file_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_log_screenshot ON processing_log(screenshot_id)`,
		`CREATE INDEX IF NOT EXISTS idx_log_timestamp ON processing_log(timestamp)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func migrateV2(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_corrections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			screenshot_id INTEGER,
			original_category TEXT NOT NULL,
			corrected_category TEXT NOT NULL,
			original_keywords TEXT,
			corrected_keywords TEXT,
			correction_timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (screenshot_id) REFERENCES screenshots(id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_corrections_category ON user_corrections(corrected_category)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
