package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bnema/colony-cli/internal/domain"
	"github.com/bnema/colony-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	PresetsPathKey    = "presets.path"
	presetsFileMode   = 0o600
	presetsDirMode    = 0o700
	presetsConfigDir  = ".colony"
	presetsConfigFile = "presets.toml"
	tempFilePattern   = ".presets-*.toml.tmp"
)

// Repository stores presets in a single TOML file. Instances pointing at the
// same path share one lock.
type Repository struct {
	presetsPath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.PresetRepository = (*Repository)(nil)

// DefaultPresetsPath is ~/.colony/presets.toml.
func DefaultPresetsPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, presetsConfigDir, presetsConfigFile), nil
}

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	if !cfg.IsSet(PresetsPathKey) {
		defaultPath, err := DefaultPresetsPath()
		if err != nil {
			return nil, err
		}
		cfg.SetDefault(PresetsPathKey, defaultPath)
	}

	presetsPath := cfg.GetString(PresetsPathKey)
	if presetsPath == "" {
		return nil, errors.New("presets path is empty")
	}
	presetsPath, err := normalizePresetsPath(presetsPath)
	if err != nil {
		return nil, err
	}

	return &Repository{presetsPath: presetsPath, mu: lockForPath(presetsPath)}, nil
}

func (r *Repository) Path() string {
	return r.presetsPath
}

func (r *Repository) Save(ctx context.Context, preset domain.Preset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(preset)
	updated := false
	for i := range file.Presets {
		if file.Presets[i].Name == encoded.Name {
			file.Presets[i] = encoded
			updated = true
			break
		}
	}
	if !updated {
		file.Presets = append(file.Presets, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return writeTOMLFile(r.presetsPath, file)
}

func (r *Repository) GetByName(ctx context.Context, name string) (domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Preset{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Preset{}, err
	}

	for _, entry := range file.Presets {
		if entry.Name == name {
			return fromSchema(entry)
		}
	}

	return domain.Preset{}, domain.ErrPresetNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Preset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	presets := make([]domain.Preset, 0, len(file.Presets))
	for _, entry := range file.Presets {
		preset, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}

	return presets, nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Presets[:0]
	found := false
	for _, entry := range file.Presets {
		if entry.Name == name {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrPresetNotFound
	}
	file.Presets = kept

	return writeTOMLFile(r.presetsPath, file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.presetsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read presets file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode presets file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePresetsPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve presets path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeTOMLFile replaces path atomically through a temp file in the same
// directory.
func writeTOMLFile(path string, file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(path), presetsDirMode); err != nil {
		return fmt.Errorf("create presets directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode presets file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp presets file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp presets file: %w", err)
	}

	if err := tempFile.Chmod(presetsFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp presets file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp presets file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace presets file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(path, presetsFileMode); err != nil {
		return fmt.Errorf("chmod presets file: %w", err)
	}

	return nil
}
