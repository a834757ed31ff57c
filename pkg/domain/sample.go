// Package domain holds the sample custody model shared by the core and the
// persistence adapters: sample records, their locations, the error taxonomy
// and the rule/result types used by integrity audits.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Location identifies which holder currently owns a sample.
type Location string

// Sample locations are mutually exclusive.
const (
	// LocationUnknown is the zero value and is never stored by a holder.
	LocationUnknown Location = ""
	// InWorld marks a sample placed in the live scene.
	InWorld Location = "in_world"
	// InInventory marks a sample carried by the player.
	InInventory Location = "in_inventory"
	// InWarehouse marks a sample kept in the persistent warehouse.
	InWarehouse Location = "in_warehouse"
)

// Valid reports whether l is one of the three concrete locations.
func (l Location) Valid() bool {
	switch l {
	case InWorld, InInventory, InWarehouse:
		return true
	default:
		return false
	}
}

func (l Location) String() string {
	if l == LocationUnknown {
		return "unknown"
	}
	return string(l)
}

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Color is an RGBA color with components in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

// Layer describes one geological layer captured in a sample. The core treats
// it as opaque payload.
type Layer struct {
	Name        string  `json:"name"`
	Color       Color   `json:"color"`
	DepthStart  float64 `json:"depth_start"`
	DepthEnd    float64 `json:"depth_end"`
	Thickness   float64 `json:"thickness"`
	Material    string  `json:"material,omitempty"`
	Description string  `json:"description,omitempty"`
}

// DisplayMetadata carries presentation data for panels.
type DisplayMetadata struct {
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	CollectedAt        time.Time `json:"collected_at"`
	SourceTool         string    `json:"source_tool,omitempty"`
	Collector          string    `json:"collector,omitempty"`
	CollectionPosition Vec3      `json:"collection_position"`
}

// SampleRecord is one collectible sample. ID is immutable once admitted;
// Location and WorldPosition are maintained by the holder that owns it.
type SampleRecord struct {
	ID            string          `json:"id"`
	Metadata      DisplayMetadata `json:"metadata"`
	Layers        []Layer         `json:"layers,omitempty"`
	TotalDepth    float64         `json:"total_depth,omitempty"`
	DepthStart    float64         `json:"depth_start,omitempty"`
	DepthEnd      float64         `json:"depth_end,omitempty"`
	DrillIndex    int             `json:"drill_index,omitempty"`
	Radius        float64         `json:"radius,omitempty"`
	Location      Location        `json:"location"`
	WorldPosition Vec3            `json:"world_position"`
}

// LayerCount returns the number of captured layers.
func (r SampleRecord) LayerCount() int { return len(r.Layers) }

// Cuttable reports whether the sample holds more than one layer.
func (r SampleRecord) Cuttable() bool { return len(r.Layers) > 1 }

// Validate checks the fields the core relies on.
func (r SampleRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r SampleRecord) Clone() SampleRecord {
	cp := r
	if r.Layers != nil {
		cp.Layers = append([]Layer(nil), r.Layers...)
	}
	return cp
}

// NewSampleID generates an identifier of the form GEO<yyMMddHHmm><8 hex>.
func NewSampleID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "GEO" + now.Format("0601021504") + suffix
}
