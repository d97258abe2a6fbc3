package source

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/pkg/logger"
)

//go:embed data/assets.geojson
var embeddedFixtures []byte

// FileFixtures serves static assets loaded once from a file or the embedded set.
type FileFixtures struct {
	path   string
	logger logger.Logger

	once   sync.Once
	assets []asset.Asset
	err    error
}

// NewFileFixtures loads from path, or from the embedded campus set when path is empty.
func NewFileFixtures(path string) *FileFixtures {
	return &FileFixtures{path: path, logger: logger.Get().Named("source.fixtures")}
}

// Fixtures returns a copy of the cached fixture set.
func (f *FileFixtures) Fixtures(ctx context.Context) ([]asset.Asset, error) {
	f.once.Do(func() {
		data := embeddedFixtures
		origin := "embedded"
		if f.path != "" {
			b, err := os.ReadFile(f.path)
			if err != nil {
				f.err = fmt.Errorf("read fixtures %s: %w", f.path, err)
				return
			}
			data, origin = b, f.path
		}
		f.assets, f.err = ParseFixtures(data)
		if f.err == nil {
			f.logger.Info(ctx, "fixtures loaded", logger.String("from", origin), logger.Int("assets", len(f.assets)))
		}
	})
	if f.err != nil {
		return nil, f.err
	}
	out := make([]asset.Asset, len(f.assets))
	copy(out, f.assets)
	return out, nil
}

type featureCollection struct {
	Type     string    `yaml:"type"`
	Features []feature `yaml:"features"`
}

type feature struct {
	Geometry struct {
		Type        string    `yaml:"type"`
		Coordinates []float64 `yaml:"coordinates"`
	} `yaml:"geometry"`
	Properties struct {
		ID        string `yaml:"id"`
		Name      string `yaml:"name"`
		Kind      string `yaml:"type"`
		AssetType string `yaml:"assetType"`
		Capacity  string `yaml:"capacity"`
		Specs     string `yaml:"specs"`
		Status    string `yaml:"status"`
	} `yaml:"properties"`
}

// ParseFixtures accepts either a GeoJSON FeatureCollection of points or a
// YAML list of assets. JSON is read through the YAML decoder.
func ParseFixtures(data []byte) ([]asset.Asset, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []asset.Asset{}, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFixtureFormat, err)
	}
	if len(node.Content) == 0 {
		return []asset.Asset{}, nil
	}

	switch node.Content[0].Kind {
	case yaml.MappingNode:
		var fc featureCollection
		if err := node.Decode(&fc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFixtureFormat, err)
		}
		if fc.Type != "FeatureCollection" {
			return nil, fmt.Errorf("%w: type %q", ErrFixtureFormat, fc.Type)
		}
		return fromFeatures(fc.Features), nil
	case yaml.SequenceNode:
		var list []asset.Asset
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFixtureFormat, err)
		}
		for i := range list {
			list[i] = withDefaults(list[i])
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%w: top level must be a mapping or a list", ErrFixtureFormat)
	}
}

func fromFeatures(features []feature) []asset.Asset {
	out := make([]asset.Asset, 0, len(features))
	for _, ft := range features {
		p := ft.Properties
		var pos asset.Position
		// GeoJSON orders coordinates [lng, lat].
		if len(ft.Geometry.Coordinates) >= 2 {
			pos = asset.Position{ft.Geometry.Coordinates[1], ft.Geometry.Coordinates[0]}
		}
		typ := asset.ParseType(p.AssetType)
		if typ == "" {
			typ = asset.ClassifyFixture(p.Kind)
		}
		status := asset.Status(strings.TrimSpace(p.Status))
		out = append(out, withDefaults(asset.Asset{
			ID:         p.ID,
			Name:       p.Name,
			Type:       typ,
			Position:   pos,
			Capacity:   p.Capacity,
			Specs:      p.Specs,
			Status:     status,
			IsCritical: asset.IsCriticalStatus(status),
		}))
	}
	return out
}

func withDefaults(a asset.Asset) asset.Asset {
	if a.Capacity == "" {
		a.Capacity = asset.NotAvailable
	}
	if a.Specs == "" {
		a.Specs = asset.NotAvailable
	}
	if a.Status == "" {
		a.Status = asset.DefaultStatus
	}
	return a
}
