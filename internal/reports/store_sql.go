package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/siad-agro/siad-api/internal/db"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(dbh *sql.DB) *SQLStore { return &SQLStore{db: dbh} }

func (s *SQLStore) Create(ctx context.Context, req Request) (Job, error) {
	if !req.ReportType.Valid() {
		return Job{}, fmt.Errorf("report_type %q: %w", req.ReportType, db.ErrInvalid)
	}
	params, err := json.Marshal(req.Params)
	if err != nil {
		return Job{}, fmt.Errorf("params: %v: %w", err, db.ErrInvalid)
	}
	if req.Params == nil {
		params = []byte("{}")
	}
	now := db.Now()
	var id int64
	err = s.db.QueryRowContext(ctx, `INSERT INTO report_jobs (report_type,status,payload,created_at)
		VALUES ($1,$2,$3,$4) RETURNING id`, string(req.ReportType), string(StatusPending), string(params), now).Scan(&id)
	if err != nil {
		return Job{}, fmt.Errorf("insert report job: %w", err)
	}
	return Job{ID: id, ReportType: req.ReportType, Status: StatusPending, Params: req.Params, CreatedAt: time.Unix(now, 0).UTC()}, nil
}

const jobCols = `id,report_type,status,payload,file_url,error,created_at,finished_at`

func scanJob(row interface{ Scan(...any) error }) (Job, error) {
	var (
		j               Job
		typ, st, params string
		fileURL         string
		created         int64
		finished        sql.NullInt64
	)
	if err := row.Scan(&j.ID, &typ, &st, &params, &fileURL, &j.Error, &created, &finished); err != nil {
		return Job{}, err
	}
	j.ReportType, j.Status = Type(typ), Status(st)
	_ = json.Unmarshal([]byte(params), &j.Params)
	if fileURL != "" {
		j.FileURL = &fileURL
	}
	j.CreatedAt = time.Unix(created, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		j.FinishedAt = &t
	}
	return j, nil
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobCols+` FROM report_jobs WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("report %d: %w", id, db.ErrNotFound)
	}
	return j, err
}

// List returns every job, newest first.
func (s *SQLStore) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobCols+` FROM report_jobs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Pending lists jobs left pending or running, oldest first.
func (s *SQLStore) Pending(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM report_jobs WHERE status IN ($1,$2) ORDER BY id`,
		string(StatusPending), string(StatusRunning))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) SetRunning(ctx context.Context, id int64) error {
	return s.update(ctx, `UPDATE report_jobs SET status=$1 WHERE id=$2`, string(StatusRunning), id)
}

func (s *SQLStore) Finish(ctx context.Context, id int64, fileURL string) error {
	return s.update(ctx, `UPDATE report_jobs SET status=$1, file_url=$2, error='', finished_at=$3 WHERE id=$4`,
		string(StatusFinished), fileURL, db.Now(), id)
}

func (s *SQLStore) Fail(ctx context.Context, id int64, msg string) error {
	return s.update(ctx, `UPDATE report_jobs SET status=$1, error=$2, finished_at=$3 WHERE id=$4`,
		string(StatusFailed), msg, db.Now(), id)
}

func (s *SQLStore) update(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return nil
}
