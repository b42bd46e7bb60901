// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/pkg/asset"
)

// applyAppend appends content, optionally behind a marker line, to an
// existing text file. Prior bytes are never changed.
func (i *Installer) applyAppend(desc asset.Descriptor, opts Options) applied {
	dst := i.resolve(desc.Destination)
	data, perm, err := i.readTarget(desc.Destination, dst)
	if err != nil {
		return failed(desc.Source, desc.Destination, err)
	}

	content := strings.TrimSpace(desc.Content)
	switch {
	case desc.Marker != "" && bytes.Contains(data, []byte(desc.Marker)):
		return applied{result: asset.Skipped(desc.Source, desc.Destination, "marker already present")}
	case desc.Marker == "" && bytes.Contains(data, []byte(content)):
		return applied{result: asset.Skipped(desc.Source, desc.Destination, "content already present")}
	}

	var block strings.Builder
	block.WriteString(separator(data))
	if desc.Marker != "" {
		block.WriteString(desc.Marker + "\n")
	}
	block.WriteString(strings.TrimRight(desc.Content, "\r\n") + "\n")

	rec := ledger.Record{Destination: dst, Marker: desc.Marker}
	if opts.DryRun {
		return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusWouldAppend, Message: "would append"}, rec)
	}
	if err := i.appendBytes(dst, []byte(block.String()), perm); err != nil {
		return failed(desc.Source, desc.Destination, err)
	}
	return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusAppended, Message: "appended"}, rec)
}

// applyAppendEnv appends KEY=VALUE lines for the declared variables missing
// from an env file, creating the file when absent. Values are written as
// given, without quoting.
func (i *Installer) applyAppendEnv(desc asset.Descriptor, opts Options) applied {
	dst := i.resolve(desc.Destination)
	data, err := i.fs.ReadFile(dst)
	if err != nil && !isNotFound(err) {
		return failed(desc.Source, desc.Destination, err)
	}

	present := envNames(data)
	var added []asset.EnvVar
	for _, v := range desc.EnvVars {
		if present[v.Name] {
			continue
		}
		present[v.Name] = true
		added = append(added, v)
	}
	skipped := len(desc.EnvVars) - len(added)
	if len(added) == 0 {
		return applied{result: asset.Skipped(desc.Source, desc.Destination, fmt.Sprintf("0 added, %d skipped", skipped))}
	}

	var block strings.Builder
	block.WriteString(separator(data))
	if desc.Comment != "" {
		comment := desc.Comment
		if !strings.HasPrefix(comment, "#") {
			comment = "# " + comment
		}
		block.WriteString(comment + "\n")
	}
	names := make([]string, 0, len(added))
	for _, v := range added {
		block.WriteString(v.Name + "=" + v.Value + "\n")
		names = append(names, v.Name)
	}

	msg := fmt.Sprintf("%d added, %d skipped", len(added), skipped)
	rec := ledger.Record{Destination: dst, EnvVars: names}
	if opts.DryRun {
		return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusWouldAppend, Message: msg}, rec)
	}
	if err := i.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return failed(desc.Source, desc.Destination, err)
	}
	if err := i.appendBytes(dst, []byte(block.String()), 0o644); err != nil {
		return failed(desc.Source, desc.Destination, err)
	}
	return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusAppended, Message: msg}, rec)
}

// readTarget reads an existing text target, enforcing the size ceiling.
func (i *Installer) readTarget(rel, path string) ([]byte, os.FileMode, error) {
	info, err := i.fs.Stat(path)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, notFound("destination", rel)
		}
		return nil, 0, err
	}
	if info.Size() > i.maxTargetSize {
		return nil, 0, fmt.Errorf("%s is %d bytes, limit is %d; edit it manually: %w", rel, info.Size(), i.maxTargetSize, asset.ErrTooLarge)
	}
	data, err := i.fs.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	return data, info.Mode().Perm(), nil
}

func (i *Installer) appendBytes(path string, b []byte, perm os.FileMode) error {
	f, err := i.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// separator returns what goes between existing content and an appended
// block: a blank line, completing an unterminated last line first.
func separator(existing []byte) string {
	switch {
	case len(existing) == 0:
		return ""
	case bytes.HasSuffix(existing, []byte("\n\n")):
		return ""
	case bytes.HasSuffix(existing, []byte("\n")):
		return "\n"
	default:
		return "\n\n"
	}
}

// envNames collects the variable names defined in an env file. Blank lines
// and # comments are ignored.
func envNames(data []byte) map[string]bool {
	names := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		name, _, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		names[strings.TrimSpace(name)] = true
	}
	return names
}
