// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"github.com/spf13/afero"

	"github.com/invowk/assetctl/internal/confmerge"
	"github.com/invowk/assetctl/pkg/asset"
)

type (
	// ConditionEvaluator decides whether a dependency condition holds.
	ConditionEvaluator interface {
		Evaluate(cond asset.Condition) bool
	}

	// Evaluator evaluates conditions against an application root.
	// FileExists paths are resolved under the root; ConfigKeyExists keys are
	// looked up in the host config file.
	Evaluator struct {
		root       string
		configFile string
		fs         afero.Afero
	}
)

// NewEvaluator creates an Evaluator over the host filesystem. configFile may
// be absolute or relative to root.
func NewEvaluator(root, configFile string) *Evaluator {
	return NewEvaluatorFs(afero.NewOsFs(), root, configFile)
}

// NewEvaluatorFs creates an Evaluator over fs.
func NewEvaluatorFs(fs afero.Fs, root, configFile string) *Evaluator {
	return &Evaluator{root: root, configFile: configFile, fs: afero.Afero{Fs: fs}}
}

// Evaluate implements ConditionEvaluator. Unreadable or malformed config files
// make ConfigKeyExists false; a nil predicate is false.
func (e *Evaluator) Evaluate(cond asset.Condition) bool {
	switch cond.Kind() {
	case asset.ConditionFileExists:
		exists, err := e.fs.Exists(asset.ResolvePath(e.root, cond.Arg()))
		return err == nil && exists
	case asset.ConditionConfigKeyExists:
		if e.configFile == "" {
			return false
		}
		data, err := e.fs.ReadFile(asset.ResolvePath(e.root, e.configFile))
		if err != nil {
			return false
		}
		doc, err := confmerge.Parse(data)
		if err != nil {
			return false
		}
		return doc.Has(cond.Arg())
	case asset.ConditionPredicate:
		fn := cond.Func()
		return fn != nil && fn()
	default:
		return true
	}
}

