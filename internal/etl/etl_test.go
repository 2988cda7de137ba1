package etl

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/siad-agro/siad-api/internal/db"
	"github.com/siad-agro/siad-api/internal/storage"
)

func newService(t *testing.T) (*Service, *storage.FSStore) {
	t.Helper()
	blobs, err := storage.NewFSStore(t.TempDir(), "/files")
	require.NoError(t, err)
	return NewService(blobs, nil), blobs
}

func TestIngestCSVFlagsMissingValues(t *testing.T) {
	s, _ := newService(t)
	job, err := s.Ingest(context.Background(), "chuvas.csv", strings.NewReader("date,rainfall_mm\n2025-01-01,3\n2025-01-02,\n"))
	require.NoError(t, err)
	assert.Equal(t, "stored", job.Status)
	assert.True(t, strings.HasPrefix(job.JobID, "etl/"))
	assert.Equal(t, "/files/"+job.JobID, job.FileURL)
	assert.Equal(t, 2, job.Rows)
	assert.Equal(t, []string{IssueMissingValues}, job.Issues)

	clean, err := s.Ingest(context.Background(), "ok.csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Empty(t, clean.Issues)
}

func TestIngestByFormat(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	j, err := s.Ingest(ctx, "dados.json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	assert.Empty(t, j.Issues)

	j, err = s.Ingest(ctx, "dados.json", strings.NewReader(`{"a":`))
	require.NoError(t, err)
	assert.Equal(t, []string{"JSON inválido"}, j.Issues)

	j, err = s.Ingest(ctx, "mapa.shp", strings.NewReader("binary"))
	require.NoError(t, err)
	assert.Equal(t, []string{IssueUnsupported}, j.Issues)

	j, err = s.Ingest(ctx, `C:\tmp\..\x.csv`, strings.NewReader("a\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, "x.csv", j.Filename)
}

func TestIngestXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "date"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "rainfall_mm"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "2025-01-01"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 4.5))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "2025-01-02"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, _ := newService(t)
	j, err := s.Ingest(context.Background(), "chuvas.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, 2, j.Rows)
	assert.Equal(t, []string{IssueMissingValues}, j.Issues)

	bad, err := s.Ingest(context.Background(), "broken.xlsx", strings.NewReader("not a zip"))
	require.NoError(t, err)
	require.Len(t, bad.Issues, 1)
	assert.Contains(t, bad.Issues[0], "Planilha ilegível")
}

const collection = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-47,-15],[-46.9,-15],[-46.9,-14.9],[-47,-15]]]}},
 {"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-47,-15],[-46.9,-15],[-46.9,-14.9],[-47,-14.9]]]}},
 {"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[-47,-15]}}
]}`

func TestIngestGeoJSONValidatesFeatures(t *testing.T) {
	s, _ := newService(t)
	j, err := s.Ingest(context.Background(), "talhoes.geojson", strings.NewReader(collection))
	require.NoError(t, err)
	require.NotNil(t, j.Geo)
	assert.Equal(t, 3, j.Geo.Features)
	assert.Equal(t, 2, j.Geo.InvalidFeatures)
	assert.Equal(t, []string{
		"Feature 2: fechar o anel do polígono",
		"Feature 3: converter Point para Polygon",
	}, j.Geo.SuggestedFixes)
	assert.Equal(t, j.Geo.SuggestedFixes, j.Issues)
}

func TestNormalizeRainfall(t *testing.T) {
	s, blobs := newService(t)
	ctx := context.Background()
	j, err := s.Ingest(ctx, "rain.csv", strings.NewReader("date,rainfall_mm,station\n05/01/2025,-3.5,BR001\n2025-01-06 00:00:00,12.25,BR001\n"))
	require.NoError(t, err)

	out, err := s.NormalizeRainfall(ctx, j.JobID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "_normalized.csv"))

	rc, err := blobs.Get(ctx, out)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "date,rainfall_mm,station\n2025-01-05,0,BR001\n2025-01-06,12.25,BR001\n", string(b))

	bad, err := s.Ingest(ctx, "x.csv", strings.NewReader("day,mm\n1,2\n"))
	require.NoError(t, err)
	_, err = s.NormalizeRainfall(ctx, bad.JobID)
	assert.ErrorIs(t, err, db.ErrInvalid)

	_, err = s.NormalizeRainfall(ctx, "etl/missing.csv")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestPreviewMapsColumns(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	var sb strings.Builder
	sb.WriteString("data;chuva;obs\n")
	for i := 1; i <= 8; i++ {
		sb.WriteString("2025-01-0" + string(rune('0'+i)) + ";1.5;\n")
	}
	j, err := s.Ingest(ctx, "p.csv", strings.NewReader(sb.String()))
	require.NoError(t, err)

	p, err := s.Preview(ctx, Mapping{FileKey: j.JobID, Delimiter: ";", ColumnMap: map[string]string{"data": "date", "chuva": "rainfall_mm"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "rainfall_mm", "obs"}, p.Columns)
	require.Len(t, p.Sample, 5)
	assert.Equal(t, "2025-01-01", p.Sample[0]["date"])
	assert.Equal(t, 1.5, p.Sample[0]["rainfall_mm"])
	assert.Nil(t, p.Sample[0]["obs"])

	_, err = s.Preview(ctx, Mapping{FileKey: j.JobID, Delimiter: ";;"})
	assert.ErrorIs(t, err, db.ErrInvalid)
	_, err = s.Preview(ctx, Mapping{FileKey: "../../etc/passwd"})
	assert.ErrorIs(t, err, db.ErrInvalid)
}
