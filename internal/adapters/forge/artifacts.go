package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"

	"github.com/dappnode/smoothing-pool-ops/internal/domain"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/config"
	"github.com/dappnode/smoothing-pool-ops/internal/domain/models"
	"github.com/dappnode/smoothing-pool-ops/internal/usecase"
)

const maxSuggestions = 3

// artifactFile covers both foundry and hardhat artifact layouts
type artifactFile struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode json.RawMessage `json:"bytecode"`

	// hardhat
	ContractName string `json:"contractName"`
	SourceName   string `json:"sourceName"`

	// foundry
	Metadata json.RawMessage `json:"metadata"`
}

type compilationMetadata struct {
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// ArtifactRepository reads compiled contracts from the build output
type ArtifactRepository struct {
	roots []string
	log   *slog.Logger

	once  sync.Once
	index map[string][]string // contract name -> artifact files
	err   error
}

// NewArtifactRepository creates a repository over the foundry out directory.
// A hardhat artifacts directory is searched as well.
func NewArtifactRepository(cfg *config.RuntimeConfig, log *slog.Logger) *ArtifactRepository {
	out := cfg.FoundryConfig.OutDir()
	if !filepath.IsAbs(out) {
		out = filepath.Join(cfg.ProjectRoot, out)
	}
	roots := lo.Uniq([]string{out, filepath.Join(cfg.ProjectRoot, "artifacts")})
	return &ArtifactRepository{
		roots: roots,
		log:   log.With("component", "ArtifactRepository"),
	}
}

// GetArtifact returns the compiled contract called name
func (r *ArtifactRepository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	r.once.Do(r.buildIndex)
	if r.err != nil {
		return nil, r.err
	}

	files := r.index[name]
	switch len(files) {
	case 0:
		return nil, domain.ArtifactNotFoundErr{Name: name, Suggestions: r.suggest(name)}
	case 1:
	default:
		r.log.Warn("several artifacts share a contract name, using the first", "name", name, "files", files)
	}

	return loadArtifact(name, files[0])
}

// buildIndex maps contract names to artifact files: <root>/**/<File>.sol/<Name>.json
func (r *ArtifactRepository) buildIndex() {
	r.index = make(map[string][]string)
	for _, root := range r.roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		r.err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// build-info and cache hold no contract artifacts
				if d.Name() == "build-info" || d.Name() == "cache" {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
				return nil
			}
			if !strings.HasSuffix(filepath.Dir(path), ".sol") {
				return nil
			}
			name := strings.TrimSuffix(filepath.Base(path), ".json")
			r.index[name] = append(r.index[name], path)
			return nil
		})
		if r.err != nil {
			r.err = fmt.Errorf("failed to index artifacts in %s: %w", root, r.err)
			return
		}
	}
	r.log.Debug("indexed artifacts", "contracts", len(r.index), "roots", r.roots)
}

func (r *ArtifactRepository) suggest(name string) []string {
	names := lo.Keys(r.index)
	sort.Strings(names)
	matches := fuzzy.Find(name, names)
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

func loadArtifact(name, path string) (*models.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse artifact %s: %w", path, err)
	}

	parsed, err := abi.JSON(bytes.NewReader(file.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI of %s: %w", name, err)
	}

	bytecode, err := parseBytecode(file.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bytecode of %s: %w", name, err)
	}

	return &models.Artifact{
		Name:       name,
		SourcePath: sourcePath(name, &file),
		ABI:        &parsed,
		Bytecode:   bytecode,
	}, nil
}

// parseBytecode accepts "0x..." (hardhat) or {"object": "0x..."} (foundry)
func parseBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		hex = obj.Object
	}

	if hex == "" || hex == "0x" {
		return nil, nil
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	if strings.Contains(hex, "__") {
		return nil, fmt.Errorf("bytecode has unlinked libraries")
	}
	return hexutil.Decode(hex)
}

func sourcePath(name string, file *artifactFile) string {
	if file.SourceName != "" {
		return file.SourceName
	}
	var metadata compilationMetadata
	if err := json.Unmarshal(file.Metadata, &metadata); err != nil {
		return ""
	}
	for path, contract := range metadata.Settings.CompilationTarget {
		if contract == name {
			return path
		}
	}
	return ""
}

// Ensure the adapter implements the interface
var _ usecase.ArtifactRepository = (*ArtifactRepository)(nil)
