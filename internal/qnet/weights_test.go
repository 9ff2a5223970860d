package qnet

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.weights")

	tr := NewTrainable(1, DefaultAdamConfig())
	weights := tr.ExportFlatWeights()
	meta := NewArtifactMeta(1234, 567)

	if err := SaveArtifact(path, weights, meta); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	loaded, loadedMeta, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact failed: %v", err)
	}
	if len(loaded) != len(weights) {
		t.Fatalf("Loaded %d weights, expected %d", len(loaded), len(weights))
	}
	for i := range weights {
		if loaded[i] != weights[i] {
			t.Fatalf("Weight %d changed: %f vs %f", i, weights[i], loaded[i])
		}
	}
	if loadedMeta == nil {
		t.Fatal("Expected metadata sidecar")
	}
	if loadedMeta.TrainSteps != 1234 || loadedMeta.GamesPlayed != 567 {
		t.Errorf("Metadata = %+v", loadedMeta)
	}
	if loadedMeta.WeightCount != FlatWeightCount() {
		t.Errorf("WeightCount = %d, expected %d", loadedMeta.WeightCount, FlatWeightCount())
	}
}

func TestLoadArtifactMissingSidecar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.weights")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := WriteArtifact(f, []float32{1, 2, 3}); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	f.Close()

	weights, meta, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact failed: %v", err)
	}
	if meta != nil {
		t.Error("Expected nil metadata without a sidecar")
	}
	if len(weights) != 3 || weights[2] != 3 {
		t.Errorf("Weights = %v", weights)
	}
}

func TestReadArtifactValidation(t *testing.T) {
	// Bad magic.
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(0xdeadbeef))
	binary.Write(&buf, binary.LittleEndian, ArtifactVersion)
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, []float32{1})
	if _, err := ReadArtifact(&buf); err == nil || !strings.Contains(err.Error(), "magic") {
		t.Errorf("Bad magic error = %v", err)
	}

	// Unsupported version.
	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, ArtifactMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(99))
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, []float32{1})
	if _, err := ReadArtifact(&buf); err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("Bad version error = %v", err)
	}

	// Truncated payload.
	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, ArtifactMagic)
	binary.Write(&buf, binary.LittleEndian, ArtifactVersion)
	binary.Write(&buf, binary.LittleEndian, uint32(10))
	binary.Write(&buf, binary.LittleEndian, []float32{1, 2})
	if _, err := ReadArtifact(&buf); err == nil {
		t.Error("Expected error for truncated payload")
	}

	// Zero weight count.
	buf.Reset()
	binary.Write(&buf, binary.LittleEndian, ArtifactMagic)
	binary.Write(&buf, binary.LittleEndian, ArtifactVersion)
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	if _, err := ReadArtifact(&buf); err == nil {
		t.Error("Expected error for zero weight count")
	}

	// Missing file.
	if _, _, err := LoadArtifact(filepath.Join(t.TempDir(), "absent.weights")); err == nil {
		t.Error("Expected error for missing file")
	}
}
