package maxent

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kidtalk/agelab/internal/features"
	"github.com/kidtalk/agelab/internal/vectorize"
)

// Artifact layout, all integers and floats little-endian:
// magic, format tag, model ID, feature options, hyperparameters, labels,
// vocabulary keys, vector length, weight rows, bias. Strings are
// uint32-length-prefixed UTF-8.
const (
	artifactMagic  = "AGLB"
	artifactFormat = "maxent.v1"

	maxArtifactString = 16 << 20
)

// Save writes the model artifact to path, creating parent directories.
func (m *Model) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(artifactMagic); err != nil {
		return err
	}
	for _, s := range []string{artifactFormat, m.ID} {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	if err := writeBool(w, m.Options.Extended); err != nil {
		return err
	}
	if err := writeBool(w, m.Options.POS); err != nil {
		return err
	}
	hyper := []interface{}{
		m.Hyper.LearningRate,
		uint32(m.Hyper.Epochs),
		m.Hyper.L2,
		m.Hyper.Tolerance,
		m.Hyper.Seed,
	}
	for _, v := range hyper {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := writeStrings(w, m.Labels); err != nil {
		return err
	}
	if err := writeStrings(w, m.Vocab.Keys()); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.Dim())); err != nil {
		return err
	}
	for _, row := range m.weights {
		if err := binary.Write(w, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, m.bias); err != nil {
		return err
	}
	return w.Flush()
}

// Load reads a model artifact. A missing file surfaces the open error; any
// decode failure, including a bad magic or format tag and truncation, wraps
// ErrArtifactFormat.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	magic := make([]byte, len(artifactMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	if string(magic) != artifactMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrArtifactFormat, magic)
	}
	format, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	if format != artifactFormat {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrArtifactFormat, format)
	}

	m := &Model{}
	if m.ID, err = readString(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	if m.Options.Extended, err = readBool(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	if m.Options.POS, err = readBool(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	var epochs uint32
	hyper := []interface{}{
		&m.Hyper.LearningRate,
		&epochs,
		&m.Hyper.L2,
		&m.Hyper.Tolerance,
		&m.Hyper.Seed,
	}
	for _, v := range hyper {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
		}
	}
	m.Hyper.Epochs = int(epochs)
	if m.Labels, err = readStrings(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	keys, err := readStrings(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	m.Vocab = vectorize.NewVocabulary(keys)

	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	if int(dim) != len(features.DenseKeys)+len(keys) {
		return nil, fmt.Errorf("%w: vector length %d does not match %d named and %d vocabulary features",
			ErrArtifactFormat, dim, len(features.DenseKeys), len(keys))
	}

	m.weights = make([][]float64, len(m.Labels))
	for k := range m.weights {
		row := make([]float64, dim)
		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
		}
		m.weights[k] = row
	}
	m.bias = make([]float64, len(m.Labels))
	if err := binary.Read(r, binary.LittleEndian, m.bias); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactFormat, err)
	}
	return m, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if n > maxArtifactString {
		return "", fmt.Errorf("string length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeStrings(w io.Writer, ss []string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(ss))); err != nil {
		return err
	}
	for _, s := range ss {
		if err := writeString(w, s); err != nil {
			return err
		}
	}
	return nil
}

func readStrings(r io.Reader) ([]string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > maxArtifactString {
		return nil, fmt.Errorf("string count %d exceeds limit", n)
	}
	ss := make([]string, n)
	for i := range ss {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		ss[i] = s
	}
	return ss, nil
}

func writeBool(w io.Writer, b bool) error {
	var v uint8
	if b {
		v = 1
	}
	return binary.Write(w, binary.LittleEndian, v)
}

func readBool(r io.Reader) (bool, error) {
	var v uint8
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return false, err
	}
	return v != 0, nil
}
