// Package etl stores uploaded data files and checks them before import.
package etl

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/storage"
)

const MaxUploadBytes = 32 << 20

const (
	IssueMissingValues = "Valores ausentes detectados"
	IssueUnsupported   = "Formato não suportado, realizar conversão"
)

type Job struct {
	JobID    string         `json:"job_id"`
	Filename string         `json:"filename"`
	Status   string         `json:"status"`
	Issues   []string       `json:"issues"`
	Rows     int            `json:"rows,omitempty"`
	Geo      *GeoValidation `json:"geo,omitempty"`
	FileURL  string         `json:"file_url"`
}

type Service struct {
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewService(blobs storage.BlobStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{blobs: blobs, log: log}
}

// Ingest stores the file under a fresh key and reports what would block an import.
func (s *Service) Ingest(ctx context.Context, filename string, r io.Reader) (Job, error) {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if filename == "" || filename == "." || filename == "/" {
		return Job{}, fmt.Errorf("filename required: %w", db.ErrInvalid)
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Job{}, err
	}
	if len(data) > MaxUploadBytes {
		return Job{}, fmt.Errorf("file larger than %d bytes: %w", MaxUploadBytes, db.ErrInvalid)
	}
	key, err := s.blobs.Put(ctx, storage.NewKey("etl", filename), bytes.NewReader(data))
	if err != nil {
		return Job{}, fmt.Errorf("store upload: %w", err)
	}

	job := Job{JobID: key, Filename: filename, Status: "stored", Issues: []string{}, FileURL: s.blobs.URL(key)}
	switch strings.ToLower(path.Ext(filename)) {
	case ".csv":
		job.Rows, job.Issues = inspectCSV(data, ',')
	case ".xlsx":
		job.Rows, job.Issues = inspectXLSX(data)
	case ".json":
		if !json.Valid(data) {
			job.Issues = append(job.Issues, "JSON inválido")
		}
	case ".geojson":
		v, err := ValidateGeoJSON(data)
		if err != nil {
			job.Issues = append(job.Issues, "GeoJSON inválido: "+err.Error())
			break
		}
		job.Geo = &v
		job.Issues = append(job.Issues, v.SuggestedFixes...)
	default:
		job.Issues = append(job.Issues, IssueUnsupported)
	}
	s.log.Info("etl upload stored", zap.String("key", key), zap.String("filename", filename),
		zap.Int("bytes", len(data)), zap.Int("issues", len(job.Issues)))
	return job, nil
}

func inspectCSV(data []byte, delim rune) (int, []string) {
	rd := csv.NewReader(bytes.NewReader(data))
	rd.Comma = delim
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return 0, []string{"CSV ilegível: " + err.Error()}
	}
	return rowIssues(records)
}

func inspectXLSX(data []byte) (int, []string) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return 0, []string{"Planilha ilegível: " + err.Error()}
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, []string{"Planilha sem abas"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return 0, []string{"Planilha ilegível: " + err.Error()}
	}
	return rowIssues(rows)
}

// rowIssues counts data rows and flags empty cells or short rows under the header.
func rowIssues(rows [][]string) (int, []string) {
	if len(rows) == 0 {
		return 0, []string{"Arquivo vazio"}
	}
	width := len(rows[0])
	issues := []string{}
	for _, row := range rows[1:] {
		missing := len(row) < width
		for _, v := range row {
			if strings.TrimSpace(v) == "" {
				missing = true
			}
		}
		if missing {
			issues = append(issues, IssueMissingValues)
			break
		}
	}
	return len(rows) - 1, issues
}

func (s *Service) read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrBadKey) {
			return nil, fmt.Errorf("%v: %w", err, db.ErrInvalid)
		}
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, MaxUploadBytes))
}
