package qnet

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/yourusername/zapzap/pkg/game"
)

// Binary weight artifact constants.
const (
	ArtifactMagic   uint32 = 0x5a41505a // "ZAPZ"
	ArtifactVersion uint32 = 1
)

// ArtifactMeta is the JSON sidecar written next to a weight artifact.
// It records the architecture so a loader can detect shape drift.
type ArtifactMeta struct {
	InputSize   int       `json:"inputSize"`
	TrunkSize   int       `json:"trunkSize"`
	HeadHidden  int       `json:"headHidden"`
	ActionDims  []int     `json:"actionDims"`
	WeightCount int       `json:"weightCount"`
	TrainSteps  int       `json:"trainSteps"`
	GamesPlayed int       `json:"gamesPlayed"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewArtifactMeta fills the architecture fields for the current network
// shape.
func NewArtifactMeta(trainSteps, gamesPlayed int) ArtifactMeta {
	dims := make([]int, game.NumDecisionTypes)
	for i, d := range game.ActionDims {
		dims[i] = d
	}
	return ArtifactMeta{
		InputSize:   InputSize,
		TrunkSize:   TrunkSize,
		HeadHidden:  HeadHidden,
		ActionDims:  dims,
		WeightCount: FlatWeightCount(),
		TrainSteps:  trainSteps,
		GamesPlayed: gamesPlayed,
		CreatedAt:   time.Now().UTC(),
	}
}

// SaveArtifact writes the flat weight vector as a binary artifact at
// path and the metadata sidecar at path+".json".
func SaveArtifact(path string, weights []float32, meta ArtifactMeta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating weight artifact: %w", err)
	}
	defer f.Close()

	if err := WriteArtifact(f, weights); err != nil {
		return fmt.Errorf("writing weight artifact: %w", err)
	}

	sidecar, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact metadata: %w", err)
	}
	if err := os.WriteFile(path+".json", sidecar, 0o644); err != nil {
		return fmt.Errorf("writing artifact metadata: %w", err)
	}
	return nil
}

// WriteArtifact writes the binary weight container: magic, version,
// weight count, then the little-endian float32 vector.
func WriteArtifact(w io.Writer, weights []float32) error {
	if err := binary.Write(w, binary.LittleEndian, ArtifactMagic); err != nil {
		return fmt.Errorf("writing magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, ArtifactVersion); err != nil {
		return fmt.Errorf("writing version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(weights))); err != nil {
		return fmt.Errorf("writing weight count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, weights); err != nil {
		return fmt.Errorf("writing weights: %w", err)
	}
	return nil
}

// LoadArtifact reads a binary weight artifact and, when present, its
// metadata sidecar. A missing sidecar is not an error.
func LoadArtifact(path string) ([]float32, *ArtifactMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening weight artifact: %w", err)
	}
	defer f.Close()

	weights, err := ReadArtifact(f)
	if err != nil {
		return nil, nil, fmt.Errorf("reading weight artifact: %w", err)
	}

	var meta *ArtifactMeta
	if sidecar, err := os.ReadFile(path + ".json"); err == nil {
		meta = &ArtifactMeta{}
		if err := json.Unmarshal(sidecar, meta); err != nil {
			return nil, nil, fmt.Errorf("decoding artifact metadata: %w", err)
		}
	}
	return weights, meta, nil
}

// ReadArtifact reads and validates the binary weight container.
func ReadArtifact(r io.Reader) ([]float32, error) {
	var magic, version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if magic != ArtifactMagic {
		return nil, fmt.Errorf("invalid magic number %#x (expected %#x)", magic, ArtifactMagic)
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("reading weight count: %w", err)
	}
	if count == 0 || count > 1<<24 {
		return nil, fmt.Errorf("implausible weight count %d", count)
	}

	weights := make([]float32, count)
	if err := binary.Read(r, binary.LittleEndian, weights); err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	return weights, nil
}
