package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"ForexSignal/internal/model"
)

// Artifact kinds understood by FileStore.
const (
	KindDense  = "dense"
	KindLinear = "linear"
)

// Artifact is the on-disk description of a per-symbol model.
type Artifact struct {
	Symbol  string    `json:"symbol"`
	Kind    string    `json:"kind"`
	Window  int       `json:"window"`
	Columns []string  `json:"columns"`
	Weights []float64 `json:"weights,omitempty"`
	Bias    float64   `json:"bias,omitempty"`
	// Target names the column a linear artifact extrapolates.
	Target string `json:"target,omitempty"`
}

// Build turns the artifact into a Predictor.
func (a Artifact) Build() (Predictor, error) {
	switch a.Kind {
	case KindDense:
		return NewDenseModel(a.Window, len(a.Columns), a.Weights, a.Bias)
	case KindLinear:
		target := a.Target
		if target == "" {
			target = model.ColClose
		}
		return ExtrapolateColumn(a.Columns, target)
	default:
		return nil, fmt.Errorf("unknown model kind %q", a.Kind)
	}
}

// Layout returns the feature layout the artifact was trained on. Linear
// artifacts work on any window length.
func (a Artifact) Layout() Layout {
	l := Layout{Columns: append([]string(nil), a.Columns...)}
	if a.Kind != KindLinear {
		l.Window = a.Window
	}
	return l
}

// artifactModel ties a built predictor to the layout of its artifact.
type artifactModel struct {
	Predictor
	layout Layout
}

func (m *artifactModel) Layout() Layout { return m.layout }

// FileStore loads artifacts from <Dir>/<symbol>.json and keeps them in memory.
type FileStore struct {
	Dir string

	mu     sync.RWMutex
	loaded map[string]Predictor
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir, loaded: make(map[string]Predictor)}
}

// Predictor implements Store.
func (s *FileStore) Predictor(symbol string) (Predictor, error) {
	s.mu.RLock()
	p, ok := s.loaded[symbol]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	path := filepath.Join(s.Dir, FileName(symbol))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no artifact for %s at %s", model.ErrModelNotFound, symbol, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	built, err := a.Build()
	if err != nil {
		return nil, fmt.Errorf("model artifact %s: %w", path, err)
	}
	p = &artifactModel{Predictor: built, layout: a.Layout()}

	s.mu.Lock()
	s.loaded[symbol] = p
	s.mu.Unlock()

	log.Info().Str("symbol", symbol).Str("kind", a.Kind).Int("window", a.Window).Msg("model artifact loaded")
	return p, nil
}

// FileName maps a symbol to its artifact file name. Characters outside
// [A-Za-z0-9._-] become underscores, so "EURUSD=X" is stored as "EURUSD_X.json".
func FileName(symbol string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, symbol)
	return clean + ".json"
}
