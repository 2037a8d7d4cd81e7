package ml

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// DefaultArtifactName is the artifact file searched for when none is configured.
const DefaultArtifactName = "churn_pipeline.json"

// ErrArtifactNotFound means no candidate path held the artifact.
var ErrArtifactNotFound = errors.New("model artifact not found")

// NotFoundError lists every location that was checked.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s (tried %s)", ErrArtifactNotFound, e.Name, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Unwrap() error {
	return ErrArtifactNotFound
}

// ArtifactError is a read, decode or validation failure for an artifact
// that does exist.
type ArtifactError struct {
	Path string
	Err  error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// UserMessage renders a load failure as the lines shown on the page.
func UserMessage(err error) []string {
	if err == nil {
		return nil
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return []string{fmt.Sprintf("Model file not found. Please ensure '%s' exists in the project directory or models folder.", notFound.Name)}
	}
	if errors.Is(err, ErrArtifactNotFound) {
		return []string{fmt.Sprintf("Model file not found. Please ensure '%s' exists in the project directory or models folder.", DefaultArtifactName)}
	}
	cause := err
	var artifactErr *ArtifactError
	if errors.As(err, &artifactErr) {
		cause = artifactErr.Err
	}
	return []string{
		fmt.Sprintf("Error loading model: %v", cause),
		"Please ensure the model file is valid.",
	}
}

// CandidatePaths returns the ordered search list for name: each extra
// directory and then the executable's directory (each checked directly
// and under models/), followed by name relative to the working directory.
func CandidatePaths(name string, extraDirs ...string) []string {
	if name == "" {
		name = DefaultArtifactName
	}
	dirs := append([]string(nil), extraDirs...)
	if exe, err := os.Executable(); err == nil {
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		dirs = append(dirs, filepath.Dir(exe))
	}

	paths := make([]string, 0, 2*len(dirs)+1)
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		paths = append(paths,
			filepath.Join(dir, name),
			filepath.Join(dir, "models", name),
		)
	}
	return append(paths, name)
}

// FindArtifact returns the first candidate that exists as a regular file.
func FindArtifact(candidates []string) (string, error) {
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	name := DefaultArtifactName
	if len(candidates) > 0 {
		name = filepath.Base(candidates[len(candidates)-1])
	}
	return "", &NotFoundError{Name: name, Tried: append([]string(nil), candidates...)}
}

// Loader finds and decodes the artifact. It does no caching of its own:
// callers load once at startup and share the result.
type Loader struct {
	Candidates []string
	Logger     *zap.Logger
}

// NewLoader searches for name in extraDirs first, then the default locations.
func NewLoader(name string, logger *zap.Logger, extraDirs ...string) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		Candidates: CandidatePaths(name, extraDirs...),
		Logger:     logger,
	}
}

// Load returns the decoded model, or nil and the reason it is absent.
func (l *Loader) Load() (Classifier, string, error) {
	path, err := FindArtifact(l.Candidates)
	if err != nil {
		l.Logger.Error("model artifact not found", zap.Strings("candidates", l.Candidates))
		return nil, "", err
	}
	model, err := LoadModel(path)
	if err != nil {
		l.Logger.Error("failed to load model artifact", zap.String("path", path), zap.Error(err))
		return nil, path, err
	}
	l.Logger.Info("model artifact loaded", zap.String("path", path))
	return model, path, nil
}
