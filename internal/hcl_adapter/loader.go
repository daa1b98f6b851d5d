package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/fsutil"
	"github.com/vk/labrig/internal/model"
)

// Loader is the HCL-specific implementation of the model.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL declaration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the entire HCL loading process. It is agnostic to the
// origin of the paths and accepts any recognized block from any file.
func (l *Loader) Load(ctx context.Context, paths ...string) (*model.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	m := &model.Model{
		Configs:     make(map[string]*model.ConfigDef),
		Experiments: make(map[string]*model.ExperimentDef),
	}

	files, err := fsutil.ExpandPaths(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, cb := range root.Configs {
			def, err := l.translateConfig(ctx, cb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if _, exists := m.Configs[def.Name]; exists {
				return nil, fmt.Errorf("in %s: duplicate config block %q", file, def.Name)
			}
			m.Configs[def.Name] = def
		}
		for _, eb := range root.Experiments {
			def, err := l.translateExperiment(ctx, eb)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if _, exists := m.Experiments[def.Name]; exists {
				return nil, fmt.Errorf("in %s: duplicate experiment block %q", file, def.Name)
			}
			m.Experiments[def.Name] = def
		}
	}

	logger.Debug("HCL loading complete.", "configs", len(m.Configs), "experiments", len(m.Experiments))
	return m, nil
}
