package factory

import (
	"NetSpike/internal/config"
	"NetSpike/internal/model"
	"NetSpike/internal/snapshot"
	"fmt"
	"log"
	"time"
)

// WriterFactory builds one flow snapshot writer from its definition.
type WriterFactory func(def config.WriterDef, interval time.Duration) (model.Writer, error)

// registry holds the mapping of writer types to their factory functions.
var registry = make(map[string]WriterFactory)

func init() {
	RegisterWriter("text", func(def config.WriterDef, interval time.Duration) (model.Writer, error) {
		return snapshot.NewTextWriter(def.RootPath, interval), nil
	})
	RegisterWriter("gob", func(def config.WriterDef, interval time.Duration) (model.Writer, error) {
		return snapshot.NewGobWriter(def.RootPath, interval), nil
	})
	RegisterWriter("clickhouse", func(def config.WriterDef, interval time.Duration) (model.Writer, error) {
		return snapshot.NewClickHouseWriter(def.ClickHouse, interval)
	})
}

// RegisterWriter registers a new writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	registry[name] = factory
}

// CreateWriters builds every enabled writer in the export config.
func CreateWriters(cfg config.ExportConfig) ([]model.Writer, error) {
	var writers []model.Writer
	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		factory, ok := registry[def.Type]
		if !ok {
			return nil, fmt.Errorf("unknown writer type: '%s'", def.Type)
		}
		interval, err := time.ParseDuration(def.SnapshotInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid snapshot_interval for writer '%s': %w", def.Type, err)
		}
		w, err := factory(def, interval)
		if err != nil {
			return nil, fmt.Errorf("error creating writer type '%s': %w", def.Type, err)
		}
		log.Printf("Created %s writer with interval %s.", def.Type, interval)
		writers = append(writers, w)
	}
	return writers, nil
}
