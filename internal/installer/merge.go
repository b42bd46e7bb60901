// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"fmt"

	"github.com/invowk/assetctl/internal/confmerge"
	"github.com/invowk/assetctl/internal/ledger"
	"github.com/invowk/assetctl/pkg/asset"
)

// applyMerge inserts a key into a config file, leaving every other byte
// unchanged. An existing key is a skip.
func (i *Installer) applyMerge(desc asset.Descriptor, opts Options) applied {
	dst := i.resolve(desc.Destination)
	data, perm, err := i.readTarget(desc.Destination, dst)
	if err != nil {
		return failed(desc.Source, desc.Destination, err)
	}

	doc, err := confmerge.Parse(data)
	if err != nil {
		return failed(desc.Source, desc.Destination, fmt.Errorf("%s: %w", desc.Destination, err))
	}
	if doc.Has(desc.Key) {
		return applied{result: asset.Skipped(desc.Source, desc.Destination, fmt.Sprintf("key %s already present", desc.Key))}
	}

	out, err := doc.Insert(desc.Key, desc.Value)
	if err != nil {
		return failed(desc.Source, desc.Destination, fmt.Errorf("%s: %w", desc.Destination, err))
	}

	rec := ledger.Record{Destination: dst, Key: desc.Key}
	if opts.DryRun {
		return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusWouldMerge, Message: "would merge " + desc.Key}, rec)
	}
	if err := i.fs.WriteFile(dst, out, perm); err != nil {
		return failed(desc.Source, desc.Destination, err)
	}
	return single(asset.Result{Success: true, Source: desc.Source, Destination: desc.Destination, Status: asset.StatusMerged, Message: "merged " + desc.Key}, rec)
}
