// Package fields stores farm plots (talhões) with their boundaries and map layers.
package fields

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/siad-agro/siad-api/internal/db"
)

var LayerTypes = []string{"solo", "drenagem", "ndvi", "clima", "produtividade"}

func validLayer(t string) bool {
	for _, l := range LayerTypes {
		if l == t {
			return true
		}
	}
	return false
}

type Layer struct {
	ID        int64          `json:"id,omitempty"`
	FieldID   int64          `json:"field_id,omitempty"`
	LayerType string         `json:"layer_type"`
	Stats     map[string]any `json:"stats,omitempty"`
	RasterURL string         `json:"raster_url,omitempty"`
	CreatedAt int64          `json:"created_at,omitempty"`
}

type Field struct {
	ID             int64           `json:"id,omitempty"`
	Name           string          `json:"name"`
	AreaHa         float64         `json:"area_ha"`
	ComputedAreaHa float64         `json:"computed_area_ha"`
	SoilType       string          `json:"soil_type,omitempty"`
	DrainageClass  string          `json:"drainage_class,omitempty"`
	Geometry       json.RawMessage `json:"geometry"`
	OwnerID        int64           `json:"owner_id,omitempty"`
	Layers         []Layer         `json:"layers"`
	CreatedAt      int64           `json:"created_at,omitempty"`
}

type Store struct{ db *sql.DB }

func NewStore(dbh *sql.DB) *Store { return &Store{db: dbh} }

// Create validates the boundary. A missing area_ha is filled from the boundary.
func (s *Store) Create(ctx context.Context, ownerID int64, f Field) (Field, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return Field{}, fmt.Errorf("name required: %w", db.ErrInvalid)
	}
	geom, area, err := ParseBoundary(f.Geometry)
	if err != nil {
		return Field{}, err
	}
	if f.AreaHa < 0 {
		return Field{}, fmt.Errorf("area_ha must be positive: %w", db.ErrInvalid)
	}
	if f.AreaHa == 0 {
		f.AreaHa = area
	}
	if f.AreaHa <= 0 {
		return Field{}, fmt.Errorf("boundary has no area: %w", db.ErrInvalid)
	}
	canonical, err := geojson.NewGeometry(geom).MarshalJSON()
	if err != nil {
		return Field{}, err
	}
	f.Geometry, f.ComputedAreaHa, f.OwnerID = canonical, area, ownerID
	f.CreatedAt = db.Now()
	f.Layers = []Layer{}
	err = s.db.QueryRowContext(ctx, `INSERT INTO fields (name,area_ha,geometry,soil_type,drainage_class,owner_id,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING id`,
		f.Name, f.AreaHa, string(canonical), f.SoilType, f.DrainageClass, ownerID, f.CreatedAt).Scan(&f.ID)
	if err != nil {
		return Field{}, fmt.Errorf("insert field: %w", err)
	}
	return f, nil
}

// List returns fields with their layers; ownerID 0 lists every field.
func (s *Store) List(ctx context.Context, ownerID int64) ([]Field, error) {
	q := `SELECT id,name,area_ha,geometry,soil_type,drainage_class,owner_id,created_at FROM fields`
	args := []any{}
	if ownerID != 0 {
		q += ` WHERE owner_id=$1`
		args = append(args, ownerID)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	out := []Field{}
	idx := map[int64]int{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		idx[f.ID] = len(out)
		out = append(out, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	lrows, err := s.db.QueryContext(ctx, `SELECT id,field_id,layer_type,stats,raster_url,created_at FROM field_layers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer lrows.Close()
	for lrows.Next() {
		l, err := scanLayer(lrows)
		if err != nil {
			return nil, err
		}
		if i, ok := idx[l.FieldID]; ok {
			out[i].Layers = append(out[i].Layers, l)
		}
	}
	return out, lrows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (Field, error) {
	f, err := scanField(s.db.QueryRowContext(ctx,
		`SELECT id,name,area_ha,geometry,soil_type,drainage_class,owner_id,created_at FROM fields WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Field{}, fmt.Errorf("field %d: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return Field{}, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,field_id,layer_type,stats,raster_url,created_at FROM field_layers WHERE field_id=$1 ORDER BY id`, id)
	if err != nil {
		return Field{}, err
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLayer(rows)
		if err != nil {
			return Field{}, err
		}
		f.Layers = append(f.Layers, l)
	}
	return f, rows.Err()
}

func (s *Store) AddLayer(ctx context.Context, fieldID int64, l Layer) (Layer, error) {
	if !validLayer(l.LayerType) {
		return Layer{}, fmt.Errorf("layer_type %q: %w", l.LayerType, db.ErrInvalid)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fields WHERE id=$1`, fieldID).Scan(&n); err != nil {
		return Layer{}, err
	}
	if n == 0 {
		return Layer{}, fmt.Errorf("field %d: %w", fieldID, db.ErrNotFound)
	}
	stats, err := json.Marshal(l.Stats)
	if err != nil {
		return Layer{}, err
	}
	if l.Stats == nil {
		stats = []byte("{}")
	}
	l.FieldID, l.CreatedAt = fieldID, db.Now()
	err = s.db.QueryRowContext(ctx, `INSERT INTO field_layers (field_id,layer_type,stats,raster_url,created_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id`, fieldID, l.LayerType, string(stats), l.RasterURL, l.CreatedAt).Scan(&l.ID)
	if err != nil {
		return Layer{}, fmt.Errorf("insert layer: %w", err)
	}
	return l, nil
}

type scanner interface{ Scan(...any) error }

func scanField(row scanner) (Field, error) {
	var f Field
	var geom string
	if err := row.Scan(&f.ID, &f.Name, &f.AreaHa, &geom, &f.SoilType, &f.DrainageClass, &f.OwnerID, &f.CreatedAt); err != nil {
		return Field{}, err
	}
	f.Geometry = json.RawMessage(geom)
	if _, area, err := ParseBoundary(f.Geometry); err == nil {
		f.ComputedAreaHa = area
	}
	f.Layers = []Layer{}
	return f, nil
}

func scanLayer(row scanner) (Layer, error) {
	var l Layer
	var stats string
	if err := row.Scan(&l.ID, &l.FieldID, &l.LayerType, &stats, &l.RasterURL, &l.CreatedAt); err != nil {
		return Layer{}, err
	}
	_ = json.Unmarshal([]byte(stats), &l.Stats)
	return l, nil
}
