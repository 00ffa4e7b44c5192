package evaluation

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store persists evaluation tests and their results in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS evaluation_tests (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			questions TEXT NOT NULL,
			total_cost REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS evaluation_results (
			id TEXT PRIMARY KEY,
			test_id TEXT NOT NULL REFERENCES evaluation_tests(id),
			provider TEXT NOT NULL,
			model_id TEXT NOT NULL,
			question_index INTEGER NOT NULL,
			response TEXT NOT NULL,
			"rank" INTEGER,
			cost REAL NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_evaluation_results_test ON evaluation_results(test_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save stores a test under a freshly minted id and returns it.
func (s *Store) Save(ctx context.Context, test *Test) (string, error) {
	questions, err := json.Marshal(test.Questions)
	if err != nil {
		return "", fmt.Errorf("encode questions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	testID := uuid.NewString()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO evaluation_tests (id, name, created_at, questions, total_cost) VALUES (?, ?, ?, ?, ?)`,
		testID, test.Name, test.CreatedAt, string(questions), test.TotalCost,
	); err != nil {
		return "", fmt.Errorf("save test: %w", err)
	}

	for _, result := range test.Results {
		var rank any
		if result.Rank != nil {
			rank = *result.Rank
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO evaluation_results (id, test_id, provider, model_id, question_index, response, "rank", cost)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), testID, result.Provider, result.ModelID,
			result.QuestionIndex, result.Response, rank, result.Cost,
		); err != nil {
			return "", fmt.Errorf("save result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	return testID, nil
}

// List returns every saved test, newest first, with its results attached.
func (s *Store) List(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, questions, total_cost FROM evaluation_tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tests := []Test{}

	for rows.Next() {
		var test Test
		var questions string

		if err := rows.Scan(&test.ID, &test.Name, &test.CreatedAt, &questions, &test.TotalCost); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(questions), &test.Questions); err != nil {
			return nil, fmt.Errorf("decode questions for test %s: %w", test.ID, err)
		}

		tests = append(tests, test)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tests {
		results, err := s.results(ctx, tests[i].ID)
		if err != nil {
			return nil, err
		}
		tests[i].Results = results
	}

	return tests, nil
}

// Get returns one saved test with its results.
func (s *Store) Get(ctx context.Context, testID string) (*Test, error) {
	var test Test
	var questions string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, questions, total_cost FROM evaluation_tests WHERE id = ?`, testID).
		Scan(&test.ID, &test.Name, &test.CreatedAt, &questions, &test.TotalCost)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(questions), &test.Questions); err != nil {
		return nil, fmt.Errorf("decode questions for test %s: %w", test.ID, err)
	}

	test.Results, err = s.results(ctx, test.ID)
	if err != nil {
		return nil, err
	}

	return &test, nil
}

func (s *Store) results(ctx context.Context, testID string) ([]ResponseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, model_id, question_index, response, "rank", cost
		 FROM evaluation_results WHERE test_id = ? ORDER BY question_index, "rank"`, testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []ResponseRecord{}

	for rows.Next() {
		var result ResponseRecord
		var rank sql.NullInt64

		if err := rows.Scan(&result.ID, &result.Provider, &result.ModelID,
			&result.QuestionIndex, &result.Response, &rank, &result.Cost); err != nil {
			return nil, err
		}
		if rank.Valid {
			value := int(rank.Int64)
			result.Rank = &value
		}

		results = append(results, result)
	}

	return results, rows.Err()
}

// WriteCSV exports one test's results as CSV rows, question text included.
func (s *Store) WriteCSV(ctx context.Context, w io.Writer, testID string) error {
	test, err := s.Get(ctx, testID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Test Name", "Question", "Provider", "Model", "Response", "Rank", "Cost"}); err != nil {
		return err
	}

	for _, result := range test.Results {
		question := ""
		if result.QuestionIndex >= 0 && result.QuestionIndex < len(test.Questions) {
			question = test.Questions[result.QuestionIndex]
		}

		rank := ""
		if result.Rank != nil {
			rank = strconv.Itoa(*result.Rank)
		}

		if err := cw.Write([]string{
			test.Name,
			question,
			result.Provider,
			result.ModelID,
			result.Response,
			rank,
			strconv.FormatFloat(result.Cost, 'f', 6, 64),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
