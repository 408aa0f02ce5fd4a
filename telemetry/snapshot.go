package telemetry

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"

	"github.com/pthm-cable/slime/renderer/palette"
	"github.com/pthm-cable/slime/systems"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot describes a saved field image.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`
	Tick    uint64 `json:"tick"`

	FieldWidth    int `json:"field_width"`
	FieldHeight   int `json:"field_height"`
	FieldChannels int `json:"field_channels"`
	Agents        int `json:"agents"`

	ChannelMass []float64 `json:"channel_mass"`

	// Image is the PNG file name, relative to the snapshot.
	Image       string `json:"image,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
}

// SnapshotWriter renders the trail field to PNG alongside a JSON sidecar.
type SnapshotWriter struct {
	dir      string
	palette  *palette.Palette
	maxWidth int
}

// NewSnapshotWriter creates a writer for dir. Returns nil if dir is empty
// (snapshots disabled). maxWidth > 0 downsamples wider fields.
func NewSnapshotWriter(dir string, pal *palette.Palette, maxWidth int) *SnapshotWriter {
	if dir == "" {
		return nil
	}
	return &SnapshotWriter{dir: dir, palette: pal, maxWidth: maxWidth}
}

// Dir returns the snapshot directory.
func (w *SnapshotWriter) Dir() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Save writes snapshot_<tick>.png and snapshot_<tick>.json and returns the
// JSON path. The field view must not change while Save runs.
func (w *SnapshotWriter) Save(meta Snapshot, view systems.FieldView) (string, error) {
	if w == nil {
		return "", nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	var img image.Image = w.palette.Image(view)
	if w.maxWidth > 0 && view.Width() > w.maxWidth {
		img = resize.Resize(uint(w.maxWidth), 0, img, resize.Bilinear)
	}

	name := fmt.Sprintf("snapshot_%d.png", meta.Tick)
	if err := writePNG(filepath.Join(w.dir, name), img); err != nil {
		return "", err
	}

	meta.Version = SnapshotVersion
	meta.FieldWidth = view.Width()
	meta.FieldHeight = view.Height()
	meta.FieldChannels = view.Channels()
	if meta.ChannelMass == nil {
		meta.ChannelMass = ChannelMass(view)
	}
	meta.Image = name
	meta.ImageWidth = img.Bounds().Dx()
	meta.ImageHeight = img.Bounds().Dy()

	return SaveSnapshot(&meta, w.dir)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot image: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot image: %w", err)
	}
	return f.Close()
}

// SaveSnapshot writes snapshot metadata to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads snapshot metadata from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &snapshot, nil
}
