package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/weekly-ranker/internal/contracts"
)

// SchemaVersion is bumped whenever the artifact layout changes
const SchemaVersion = 1

// Header identifies one model/scaler pair. Both files carry the same header.
type Header struct {
	SchemaVersion      int                `json:"schema_version"`
	FeatureSchema      int                `json:"feature_schema"`
	FeatureFingerprint string             `json:"feature_fingerprint"`
	FeatureNames       []string           `json:"feature_names"`
	PairID             string             `json:"pair_id"`
	CreatedAt          time.Time          `json:"created_at"`
	ConfigHash         string             `json:"config_hash,omitempty"`
	Metrics            map[string]float64 `json:"metrics,omitempty"`
}

// Artifact is the model and scaler that must always be used together
type Artifact struct {
	Header Header
	Model  *Booster
	Scaler *Scaler
}

type modelFile struct {
	Header  Header   `json:"header"`
	Booster *Booster `json:"booster"`
}

type scalerFile struct {
	Header Header  `json:"header"`
	Scaler *Scaler `json:"scaler"`
}

// NewHeader stamps a fresh pair identity for the current feature schema
func NewHeader(configHash string) Header {
	return Header{
		SchemaVersion:      SchemaVersion,
		FeatureSchema:      contracts.FeatureSchemaVersion,
		FeatureFingerprint: contracts.FeatureFingerprint(),
		FeatureNames:       contracts.FeatureNames(),
		PairID:             uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		ConfigHash:         configHash,
	}
}

// Store persists the single current artifact pair for a horizon
// ⭐ SSOT: data/models/{model,scaler}_<horizon>.json 읽기/쓰기는 여기서만
type Store struct {
	dir     string
	horizon string
}

// NewStore creates an artifact store; horizon names the files ("week")
func NewStore(dir, horizon string) *Store {
	return &Store{dir: dir, horizon: horizon}
}

// ModelPath returns the model file path
func (s *Store) ModelPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("model_%s.json", s.horizon))
}

// ScalerPath returns the scaler file path
func (s *Store) ScalerPath() string {
	return filepath.Join(s.dir, fmt.Sprintf("scaler_%s.json", s.horizon))
}

// Save overwrites the current pair. The scaler is written first so a crash
// between the two renames leaves mismatched pair ids, which Load rejects.
func (s *Store) Save(a *Artifact) error {
	if a.Model == nil || a.Scaler == nil {
		return errors.New("artifact needs both model and scaler")
	}
	if a.Header.PairID == "" {
		return errors.New("artifact header has no pair id")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	if err := writeJSONAtomic(s.ScalerPath(), scalerFile{Header: a.Header, Scaler: a.Scaler}); err != nil {
		return fmt.Errorf("save scaler: %w", err)
	}
	if err := writeJSONAtomic(s.ModelPath(), modelFile{Header: a.Header, Booster: a.Model}); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Load reads and validates the pair.
// A missing file is ErrArtifactNotFound; any identity or shape disagreement is ErrArtifactMismatch.
func (s *Store) Load() (*Artifact, error) {
	var mf modelFile
	if err := readJSON(s.ModelPath(), &mf); err != nil {
		return nil, err
	}
	var sf scalerFile
	if err := readJSON(s.ScalerPath(), &sf); err != nil {
		return nil, err
	}

	a := &Artifact{Header: mf.Header, Model: mf.Booster, Scaler: sf.Scaler}
	if err := a.validate(sf.Header); err != nil {
		return nil, err
	}
	return a, nil
}

// Exists reports whether both files are present
func (s *Store) Exists() bool {
	for _, p := range []string{s.ModelPath(), s.ScalerPath()} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (a *Artifact) validate(scalerHeader Header) error {
	mismatch := func(format string, args ...interface{}) error {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), contracts.ErrArtifactMismatch)
	}

	h := a.Header
	switch {
	case a.Model == nil || a.Scaler == nil:
		return mismatch("artifact file has no payload")
	case h.SchemaVersion != SchemaVersion:
		return mismatch("artifact schema %d, want %d", h.SchemaVersion, SchemaVersion)
	case h.PairID == "" || h.PairID != scalerHeader.PairID:
		return mismatch("model pair %q does not match scaler pair %q", h.PairID, scalerHeader.PairID)
	case h.FeatureFingerprint != contracts.FeatureFingerprint():
		return mismatch("feature fingerprint %.12s does not match current feature order", h.FeatureFingerprint)
	case scalerHeader.FeatureFingerprint != h.FeatureFingerprint:
		return mismatch("scaler fingerprint differs from model")
	case a.Model.NumFeatures != contracts.NumFeatures || a.Scaler.Width() != contracts.NumFeatures:
		return mismatch("model width %d / scaler width %d, want %d", a.Model.NumFeatures, a.Scaler.Width(), contracts.NumFeatures)
	}
	return nil
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, contracts.ErrArtifactNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode %s: %w: %v", path, contracts.ErrArtifactMismatch, err)
	}
	return nil
}

func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
