package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestProjectCommand(t *testing.T) {
	out := execute(t, "project", "--rain", "10", "--cost", "-5", "--fert", "3", "--price", "152")

	var got struct {
		ProjectedMargin float64 `json:"projected_margin"`
		RiskScore       float64 `json:"risk_score"`
		Display         struct {
			Margin string `json:"margin"`
		} `json:"display"`
		Warnings []string `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 5948.06, got.ProjectedMargin, 0.01)
	assert.InDelta(t, 0.8583, got.RiskScore, 0.0001)
	assert.Equal(t, "R$ 5.9k", got.Display.Margin)
	assert.Empty(t, got.Warnings)
}

func TestIngestCommand(t *testing.T) {
	t.Setenv("STORAGE_DIR", t.TempDir())
	src := filepath.Join(t.TempDir(), "talhoes.geojson")
	require.NoError(t, os.WriteFile(src, []byte(`{"type":"FeatureCollection","features":[
		{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-47.9,-15.8],[-47.89,-15.8],[-47.89,-15.79],[-47.9,-15.79],[-47.9,-15.8]]]}}
	]}`), 0o600))

	out := execute(t, "ingest", src)

	var job struct {
		JobID    string `json:"job_id"`
		Filename string `json:"filename"`
		Geo      struct {
			Features int `json:"features"`
		} `json:"geo"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &job))
	assert.Equal(t, "talhoes.geojson", job.Filename)
	assert.True(t, strings.HasPrefix(job.JobID, "etl/"))
	assert.Equal(t, 1, job.Geo.Features)
}
