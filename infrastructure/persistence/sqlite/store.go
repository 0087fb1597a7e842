package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"infinicraft-backend/application/ports"
	"infinicraft-backend/domain/core/entities"
	"infinicraft-backend/domain/core/valueobjects"
	pkgerrors "infinicraft-backend/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Store implements the crafting repositories on SQLite.
// Uses WAL mode with a single connection so every write is serialized.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema; safe to call repeatedly.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func (s *Store) Elements() ports.ElementRepository         { return (*elementRepository)(s) }
func (s *Store) BaseElements() ports.BaseElementRepository { return (*baseRepository)(s) }
func (s *Store) Combinations() ports.CombinationRepository { return (*combinationRepository)(s) }
func (s *Store) Discoveries() ports.DiscoveryRepository    { return (*discoveryRepository)(s) }

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	return classify("ping", s.db.PingContext(ctx))
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// classify maps driver errors onto the application error taxonomy
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange:
			return pkgerrors.NewDatabaseError(operation, err)
		}
	}
	return pkgerrors.NewStoreUnavailableError(operation, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

type elementRepository Store

func scanElement(scan func(dest ...any) error) (*entities.Element, error) {
	var id, name, symbol, createdAt string
	if err := scan(&id, &name, &symbol, &createdAt); err != nil {
		return nil, err
	}
	elementID, err := valueobjects.NewElementIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored element has no id")
	}
	return entities.ReconstructElement(elementID, name, symbol, parseTime(createdAt)), nil
}

func (r *elementRepository) GetByID(ctx context.Context, id valueobjects.ElementID) (*entities.Element, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, symbol, created_at FROM elements WHERE id = ?`, id.String())
	element, err := scanElement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewElementNotFoundError(id.String())
	}
	if err != nil {
		return nil, classify("get element", err)
	}
	return element, nil
}

func (r *elementRepository) FindByNameAndSymbol(ctx context.Context, name, symbol string) (*entities.Element, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, symbol, created_at FROM elements WHERE name = ? AND symbol = ?`, name, symbol)
	element, err := scanElement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find element by name", err)
	}
	return element, nil
}

func (r *elementRepository) Save(ctx context.Context, element *entities.Element) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO elements (id, name, symbol, created_at)
		VALUES (?, ?, ?, ?)
	`,
		element.ID().String(),
		element.Name(),
		element.Symbol(),
		formatTime(element.CreatedAt()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.NewDuplicateElementError(element.Name(), element.Symbol())
		}
		return classify("save element", err)
	}
	return nil
}

func (r *elementRepository) List(ctx context.Context) ([]*entities.Element, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, symbol, created_at FROM elements ORDER BY rowid`)
	if err != nil {
		return nil, classify("list elements", err)
	}
	defer rows.Close()

	var elements []*entities.Element
	for rows.Next() {
		element, err := scanElement(rows.Scan)
		if err != nil {
			return nil, classify("list elements", err)
		}
		elements = append(elements, element)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list elements", err)
	}
	return elements, nil
}

type baseRepository Store

func (r *baseRepository) GetBaseIDs(ctx context.Context) ([]valueobjects.ElementID, error) {
	var joined string
	err := r.db.QueryRowContext(ctx, `SELECT element_ids FROM base_set WHERE id = 1`).Scan(&joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get base set", err)
	}
	return valueobjects.ElementIDsFromStrings(strings.Split(joined, ",")), nil
}

func (r *baseRepository) SaveBaseIDs(ctx context.Context, ids []valueobjects.ElementID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO base_set (id, element_ids, created_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, strings.Join(valueobjects.ElementIDStrings(ids), ","), formatTime(time.Now()))
	if err != nil {
		return false, classify("save base set", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, classify("save base set", err)
	}
	return n == 1, nil
}

type combinationRepository Store

func (r *combinationRepository) Get(ctx context.Context, key valueobjects.PairKey) (*entities.Combination, error) {
	var resultID, source, createdAt string
	err := r.db.QueryRowContext(ctx, `
		SELECT result_id, source, created_at FROM combinations
		WHERE left_id = ? AND right_id = ?
	`, key.Low().String(), key.High().String()).Scan(&resultID, &source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get combination", err)
	}

	result, err := valueobjects.NewElementIDFromString(resultID)
	if err != nil {
		return nil, pkgerrors.NewInternalError("stored combination has no result id")
	}
	return entities.ReconstructCombination(key, result, entities.CombinationSource(source), parseTime(createdAt)), nil
}

// InsertIfAbsent uses ON CONFLICT DO NOTHING; zero affected rows means the pair was taken
func (r *combinationRepository) InsertIfAbsent(ctx context.Context, combination *entities.Combination) (*entities.Combination, bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO combinations (left_id, right_id, result_id, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(left_id, right_id) DO NOTHING
	`,
		combination.LeftID().String(),
		combination.RightID().String(),
		combination.ResultID().String(),
		string(combination.Source()),
		formatTime(combination.CreatedAt()),
	)
	if err != nil {
		return nil, false, classify("insert combination", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, classify("insert combination", err)
	}
	if n == 1 {
		return combination, true, nil
	}

	existing, err := r.Get(ctx, combination.Key())
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, pkgerrors.NewInternalError("combination conflict but no row found")
	}
	return existing, false, nil
}

func (r *combinationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM combinations`).Scan(&n); err != nil {
		return 0, classify("count combinations", err)
	}
	return n, nil
}

type discoveryRepository Store

func (r *discoveryRepository) Get(ctx context.Context, userID string) (*entities.DiscoverySet, error) {
	var updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM discovery_users WHERE user_id = ?`, userID).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get discoveries", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT element_id FROM discoveries WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, classify("get discoveries", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, classify("get discoveries", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get discoveries", err)
	}
	return entities.ReconstructDiscoverySet(userID, valueobjects.ElementIDsFromStrings(ids), parseTime(updatedAt)), nil
}

func (r *discoveryRepository) CreateIfAbsent(ctx context.Context, set *entities.DiscoverySet) (*entities.DiscoverySet, error) {
	created, err := r.write(ctx, set, false)
	if err != nil {
		return nil, err
	}
	if created {
		return set, nil
	}

	existing, err := r.Get(ctx, set.UserID())
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, pkgerrors.NewInternalError("discovery conflict but no row found")
	}
	return existing, nil
}

// Add inserts only when the user row exists; the primary key makes repeats a no-op
func (r *discoveryRepository) Add(ctx context.Context, userID string, id valueobjects.ElementID) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO discoveries (user_id, element_id)
		SELECT ?, ? WHERE EXISTS (SELECT 1 FROM discovery_users WHERE user_id = ?)
		ON CONFLICT(user_id, element_id) DO NOTHING
	`, userID, id.String(), userID)
	if err != nil {
		return false, classify("add discovery", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, classify("add discovery", err)
	}
	if n == 1 {
		if _, err := r.db.ExecContext(ctx,
			`UPDATE discovery_users SET updated_at = ? WHERE user_id = ?`, formatTime(time.Now()), userID); err != nil {
			r.logger.Warn("Failed to touch discovery timestamp", zap.String("userID", userID), zap.Error(err))
		}
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discovery_users WHERE user_id = ?`, userID).Scan(&exists)
	if err != nil {
		return false, classify("add discovery", err)
	}
	if exists == 0 {
		return false, pkgerrors.NewNotFoundError("discovery set").WithCode(pkgerrors.CodeDiscoveryNotFound)
	}
	return false, nil
}

func (r *discoveryRepository) Replace(ctx context.Context, set *entities.DiscoverySet) error {
	_, err := r.write(ctx, set, true)
	return err
}

// write stores set in one transaction. Without overwrite an existing user is left alone.
func (r *discoveryRepository) write(ctx context.Context, set *entities.DiscoverySet, overwrite bool) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, classify("write discoveries", err)
	}
	defer tx.Rollback()

	upsert := `INSERT INTO discovery_users (user_id, updated_at) VALUES (?, ?) ON CONFLICT(user_id) DO NOTHING`
	if overwrite {
		upsert = `INSERT INTO discovery_users (user_id, updated_at) VALUES (?, ?)
			ON CONFLICT(user_id) DO UPDATE SET updated_at = excluded.updated_at`
	}
	result, err := tx.ExecContext(ctx, upsert, set.UserID(), formatTime(set.UpdatedAt()))
	if err != nil {
		return false, classify("write discoveries", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, classify("write discoveries", err)
	}
	if n == 0 && !overwrite {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM discoveries WHERE user_id = ?`, set.UserID()); err != nil {
		return false, classify("write discoveries", err)
	}
	for _, id := range set.IDs() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO discoveries (user_id, element_id) VALUES (?, ?)`, set.UserID(), id.String()); err != nil {
			return false, classify("write discoveries", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, classify("write discoveries", err)
	}
	return true, nil
}
