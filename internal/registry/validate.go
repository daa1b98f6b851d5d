package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/labrig/internal/ctxlog"
	"github.com/vk/labrig/internal/model"
)

// ValidateModel performs a strict parity check between the loaded model and
// the registered Go handlers. Every handler a manifest references must
// exist, and a handler's declared dependencies must be attribute names
// visible to the config that registers it. Structural references (extends,
// nested configs, experiment targets) are checked as well so that defects
// surface at startup rather than mid-run.
func (r *Registry) ValidateModel(ctx context.Context, m *model.Model) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	configNames := make([]string, 0, len(m.Configs))
	for name := range m.Configs {
		configNames = append(configNames, name)
	}
	sort.Strings(configNames)

	for _, name := range configNames {
		def := m.Configs[name]
		closure := attributeClosure(m, name)

		for _, ext := range def.Extends {
			if _, ok := m.Configs[ext]; !ok {
				errs = append(errs, fmt.Sprintf("config '%s': extends unknown config '%s'", name, ext))
			}
		}
		for _, attr := range def.Attributes {
			if attr.Nested == "" {
				continue
			}
			if _, ok := m.Configs[attr.Nested]; !ok {
				errs = append(errs, fmt.Sprintf("config '%s': attribute '%s' references unknown config '%s'", name, attr.Name, attr.Nested))
			}
		}
		for _, opt := range def.Options {
			if opt.Handler == "" {
				continue
			}
			subject := fmt.Sprintf("config '%s': option '%s'", name, opt.Name)
			errs = append(errs, r.checkHandler(closure, subject, opt.Handler, opt.After)...)
		}
		for _, app := range def.Appends {
			if app.Handler == "" {
				continue
			}
			subject := fmt.Sprintf("config '%s': append for '%s'", name, app.Attribute)
			errs = append(errs, r.checkHandler(closure, subject, app.Handler, app.After)...)
		}
	}

	experimentNames := make([]string, 0, len(m.Experiments))
	for name := range m.Experiments {
		experimentNames = append(experimentNames, name)
	}
	sort.Strings(experimentNames)

	for _, name := range experimentNames {
		e := m.Experiments[name]
		if _, ok := m.Configs[e.Configs]; !ok {
			errs = append(errs, fmt.Sprintf("experiment '%s': references unknown config '%s'", name, e.Configs))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("model validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	logger.Debug("Model validation passed.", "configs", len(m.Configs), "experiments", len(m.Experiments))
	return nil
}

// checkHandler reports a missing handler, or handler dependencies that no
// attribute in the closure declares.
func (r *Registry) checkHandler(closure map[string]struct{}, subject, handler string, after []string) []string {
	body, ok := r.handlers[handler]
	if !ok {
		return []string{fmt.Sprintf("%s references unknown handler '%s'", subject, handler)}
	}

	var errs []string
	check := func(dep string) {
		if _, ok := closure[dep]; !ok {
			errs = append(errs, fmt.Sprintf("%s: handler '%s' depends on '%s', which no attribute declares", subject, handler, dep))
		}
	}
	for _, dep := range body.Dependencies() {
		check(dep)
	}
	for _, dep := range after {
		check(dep)
	}
	return errs
}

// attributeClosure collects the attribute names a config and its transitive
// bases declare. Unknown extends references are reported separately and
// skipped here; extend cycles terminate through the seen set.
func attributeClosure(m *model.Model, name string) map[string]struct{} {
	closure := make(map[string]struct{})
	seen := make(map[string]struct{})

	var walk func(string)
	walk = func(n string) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		def, ok := m.Configs[n]
		if !ok {
			return
		}
		for _, ext := range def.Extends {
			walk(ext)
		}
		for _, attr := range def.Attributes {
			closure[attr.Name] = struct{}{}
		}
	}
	walk(name)
	return closure
}
