package model

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bahalana/floodcast/internal/domain"
)

// Metadata is the JSON companion of the binary model blob. The feature
// column list recorded here is the contract prediction validates against;
// the rest is provenance for operators.
type Metadata struct {
	ModelID            string             `json:"model_id"`
	TrainedAt          time.Time          `json:"trained_at"`
	FeatureColumns     []string           `json:"feature_columns"`
	Params             Params             `json:"params"`
	TrainingRows       int                `json:"training_rows"`
	TestRows           int                `json:"test_rows"`
	DroppedRows        int                `json:"dropped_rows"`
	PositiveLabels     int                `json:"positive_labels"`
	NegativeLabels     int                `json:"negative_labels"`
	ScalePosWeight     float64            `json:"scale_pos_weight"`
	Accuracy           float64            `json:"accuracy"`
	F1Score            float64            `json:"f1_score"`
	CVMeanF1           float64            `json:"cv_mean_f1"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
	Warnings           []string           `json:"warnings,omitempty"`
}

// MetadataPath returns the sidecar path for a model blob.
func MetadataPath(modelPath string) string {
	return modelPath + ".meta.json"
}

// Save writes the model blob (gob) and its metadata sidecar. The metadata
// gets a fresh model ID and timestamp; both files must land for the save
// to count, a partial pair is reported as an error.
func Save(modelPath string, m *Model, meta Metadata) error {
	meta.ModelID = uuid.NewString()
	meta.TrainedAt = domain.Now().UTC()
	meta.FeatureColumns = m.Columns

	f, err := os.Create(modelPath)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("save model: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("save model metadata: %w", err)
	}
	if err := os.WriteFile(MetadataPath(modelPath), data, 0o644); err != nil {
		return fmt.Errorf("save model metadata: %w", err)
	}
	return nil
}

// Load reads a model blob and its metadata sidecar together and verifies
// the two agree on the feature column order. A disagreement means the pair
// was assembled from different training runs and is unusable.
func Load(modelPath string) (*Model, Metadata, error) {
	var meta Metadata

	f, err := os.Open(modelPath)
	if err != nil {
		return nil, meta, fmt.Errorf("load model: %w", err)
	}
	defer f.Close()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, meta, fmt.Errorf("load model: decode: %w", err)
	}

	data, err := os.ReadFile(MetadataPath(modelPath))
	if err != nil {
		return nil, meta, fmt.Errorf("load model metadata: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, meta, fmt.Errorf("load model metadata: %w", err)
	}

	if !equalColumns(m.Columns, meta.FeatureColumns) {
		return nil, meta, fmt.Errorf("model blob and metadata disagree on feature columns: %w",
			domain.ErrFeatureMismatch)
	}
	return &m, meta, nil
}

func equalColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
