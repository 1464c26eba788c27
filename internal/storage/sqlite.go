package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ryori/internal/models"
)

// ErrNotFound is returned when a recipe or import does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStorage implements RecipeStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		position INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		ingredients TEXT NOT NULL,
		url TEXT,
		import_id TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_name ON recipes(name);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		source TEXT,
		recipes INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_imports_created_at ON imports(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplaceAll deletes the stored catalog and inserts recipes in order. Positions are the
// slice indices, so the stored catalog is index-aligned with the input.
func (s *SQLiteStorage) ReplaceAll(ctx context.Context, recipes []models.Recipe, source string) (*Import, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes`); err != nil {
		return nil, fmt.Errorf("failed to clear recipes: %w", err)
	}

	imp := &Import{
		ID:        uuid.New().String(),
		Source:    source,
		Recipes:   len(recipes),
		CreatedAt: time.Now().UTC(),
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO recipes (position, name, ingredients, url, import_id)
		 VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for i, r := range recipes {
		if _, err := stmt.ExecContext(ctx, i, r.Name, r.Ingredients, r.URL, imp.ID); err != nil {
			return nil, fmt.Errorf("failed to insert recipe %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, recipes, created_at) VALUES (?, ?, ?, ?)`,
		imp.ID, imp.Source, imp.Recipes, imp.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to record import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return imp, nil
}

// GetRecipe returns the recipe at a catalog position.
func (s *SQLiteStorage) GetRecipe(ctx context.Context, index int) (*models.Recipe, error) {
	var r models.Recipe
	var url sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT position, name, ingredients, url FROM recipes WHERE position = ?`, index,
	).Scan(&r.Index, &r.Name, &r.Ingredients, &url)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe %d: %w", index, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.URL = url.String
	return &r, nil
}

// ListRecipes returns recipes in position order with offset and limit.
func (s *SQLiteStorage) ListRecipes(ctx context.Context, offset, limit int) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, ingredients, url FROM recipes ORDER BY position LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipes(rows)
}

// Load returns the whole catalog in position order.
func (s *SQLiteStorage) Load(ctx context.Context) ([]models.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, ingredients, url FROM recipes ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecipes(rows)
}

func scanRecipes(rows *sql.Rows) ([]models.Recipe, error) {
	var recipes []models.Recipe
	for rows.Next() {
		var r models.Recipe
		var url sql.NullString
		if err := rows.Scan(&r.Index, &r.Name, &r.Ingredients, &url); err != nil {
			return nil, err
		}
		r.URL = url.String
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// CountRecipes returns the total number of recipes.
func (s *SQLiteStorage) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	return count, err
}

// LastImport returns the most recent import.
func (s *SQLiteStorage) LastImport(ctx context.Context) (*Import, error) {
	var imp Import
	var source sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, recipes, created_at FROM imports ORDER BY created_at DESC LIMIT 1`,
	).Scan(&imp.ID, &source, &imp.Recipes, &imp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("import: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	imp.Source = source.String
	return &imp, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
