// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/pkg/asset"
)

// applyCopy copies a file or mirrors a directory. A safe copy never
// overwrites; a plain copy overwrites only with Force or Existing.
func (i *Installer) applyCopy(desc asset.Descriptor, opts Options, safe bool) applied {
	src, dst := i.resolve(desc.Source), i.resolve(desc.Destination)
	info, err := i.fs.Stat(src)
	if err != nil {
		if isNotFound(err) {
			return failed(desc.Source, desc.Destination, notFound("source", desc.Source))
		}
		return failed(desc.Source, desc.Destination, err)
	}

	if desc.Option(asset.OptionRenameWithModule) {
		if !info.IsDir() {
			return failed(desc.Source, desc.Destination, fmt.Errorf("batch source %s is not a directory: %w", desc.Source, asset.ErrNotFound))
		}
		return i.copyBatch(desc, opts, src, dst)
	}

	rec := ledger.Record{Source: src, Destination: dst}
	update := false
	if i.exists(dst) {
		switch {
		case safe:
			return applied{result: asset.Skipped(desc.Source, desc.Destination, "destination exists, never overwritten")}
		case opts.Force:
		case opts.Existing:
			update = true
		default:
			return applied{result: asset.Skipped(desc.Source, desc.Destination, "destination exists, use --force to overwrite")}
		}
	}

	if opts.DryRun {
		return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusWouldInstall, Message: "would copy"}, rec)
	}

	if info.IsDir() {
		err = i.mirror(src, dst)
	} else {
		err = i.copyFile(src, dst, info.Mode().Perm())
	}
	if err != nil {
		return failed(desc.Source, desc.Destination, err)
	}
	msg := "copied"
	if update {
		msg = "updated"
	}
	return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusInstalled, Message: msg}, rec)
}

// copyBatch copies every versioned file of a directory, injecting the module
// namespace into the file name and the declared type name. Files whose
// target exists are skipped.
func (i *Installer) copyBatch(desc asset.Descriptor, opts Options, src, dst string) applied {
	files, err := asset.BatchSources(i.fs, src)
	if err != nil {
		return failed(desc.Source, desc.Destination, err)
	}

	var (
		children []asset.Result
		records  []ledger.Record
	)
	for _, file := range files {
		bf, _ := asset.ParseBatchFile(filepath.Base(file))
		target := filepath.Join(dst, bf.FileName(desc.Module))
		relTarget := filepath.ToSlash(filepath.Join(desc.Destination, bf.FileName(desc.Module)))
		rec := ledger.Record{Source: file, Destination: target}

		switch {
		case i.exists(target):
			children = append(children, asset.Skipped(file, relTarget, "destination exists"))
			records = append(records, rec)
		case opts.DryRun:
			children = append(children, asset.Result{Success: true, Source: file, Destination: relTarget, Status: asset.StatusWouldInstall})
		default:
			if err := i.copyNamespaced(file, target, bf, desc.Module); err != nil {
				children = append(children, asset.Failed(file, relTarget, err))
				continue
			}
			children = append(children, asset.Result{Success: true, Source: file, Destination: relTarget, Status: asset.StatusInstalled, Message: "copied"})
			records = append(records, rec)
		}
	}

	result := asset.Batch(desc.Source, desc.Destination, children)
	if opts.DryRun && result.Status == asset.StatusBatchInstalled {
		result.Status = asset.StatusWouldInstall
	}
	return applied{result: result, records: records}
}

func (i *Installer) copyNamespaced(src, dst string, bf asset.BatchFile, module asset.ModuleName) error {
	data, err := i.fs.ReadFile(src)
	if err != nil {
		return err
	}
	token := regexp.MustCompile(`\b` + regexp.QuoteMeta(bf.Name) + `\b`)
	data = token.ReplaceAll(data, []byte(bf.TypeName(module)))
	if err := i.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return i.fs.WriteFile(dst, data, 0o644)
}

func (i *Installer) mirror(src, dst string) error {
	return i.fs.Walk(src, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return i.fs.MkdirAll(target, 0o755)
		}
		return i.copyFile(path, target, info.Mode().Perm())
	})
}

func (i *Installer) copyFile(src, dst string, perm os.FileMode) error {
	data, err := i.fs.ReadFile(src)
	if err != nil {
		return err
	}
	if err := i.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return i.fs.WriteFile(dst, data, perm)
}
