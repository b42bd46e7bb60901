// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/invowk/assetctl/pkg/asset"
)

// Issue identifiers. Values start at 1 so the zero Id means "none".
const (
	FileNotFoundId Id = iota + 1
	ConfigLoadFailedId
	ManifestInvalidId
	ModuleNotFoundId
	DependencyCycleId
	TargetTooLargeId
	MalformedTargetId
	SessionRequiredId
	LedgerUnreadableId
	PermissionDeniedId
	InstallFailedId
)

type (
	// Id identifies an issue page.
	Id int

	// MarkdownMsg is the markdown body of an issue page.
	MarkdownMsg string

	// HttpLink is a documentation link shown under an issue page.
	HttpLink string

	// Issue is a help page explaining a class of failure and how to recover.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page as terminal markdown with the given glamour style
// ("dark", "light", "notty", or a JSON style path).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# A source or destination file is missing!

An asset operation needs a file that does not exist.

## Common causes:
- **append** and **merge** only edit existing files; they never create them
- A **copy** source path in the manifest is wrong or was not shipped with the plugin

## Things you can try:
- Create the destination file first, then rerun the install
- Check the paths in the module manifest:
~~~
$ assetctl list
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load the assetctl configuration!

## Things you can try:
- Show the configuration that is in effect:
~~~
$ assetctl config show
~~~

- Write a fresh default file:
~~~
$ assetctl config init
~~~

- Check the file for TOML syntax errors (unclosed quotes, duplicate keys)`,
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# A module manifest is invalid!

A ` + "`*.assets.yaml`" + ` file under the plugins directory could not be loaded.

## Things you can try:
- Check the YAML syntax at the reported line
- Make sure every asset has a known ` + "`type`" + `: copy, copy_safe, append, append_env, merge or dependencies
- Give each type its required fields, e.g. merge needs ` + "`destination`" + `, ` + "`key`" + ` and ` + "`value`" + ` or ` + "`raw`" + `

## Example:
~~~yaml
module: blog
assets:
  - type: copy_safe
    source: stubs/blog.php
    destination: config/blog.php
~~~`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

The module you asked for is not in the catalog.

## Things you can try:
- List the available modules:
~~~
$ assetctl list
~~~

- Check the ` + "`plugins_dir`" + ` setting points at your plugins`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Circular dependency detected!

Modules depend on each other in a loop, so no install order exists.
Nothing was installed.

## Things you can try:
- Inspect the dependency tree:
~~~
$ assetctl tree <module> --all
~~~

- Remove one of the dependencies in the reported cycle`,
	}

	targetTooLargeIssue = &Issue{
		id: TargetTooLargeId,
		mdMsg: `
# The target file is too large to edit!

append and merge refuse to touch files above ` + "`max_target_size`" + `. This guards
against a file growing without bound.

## Things you can try:
- Edit the file manually and add the snippet yourself
- Clean up duplicated blocks in the file, then rerun
- Raise ` + "`max_target_size`" + ` in the configuration if the size is expected`,
	}

	malformedTargetIssue = &Issue{
		id: MalformedTargetId,
		mdMsg: `
# The config file has an unexpected shape!

merge only understands a file that returns a single array literal:

~~~php
<?php

return [
    'name' => 'app',
];
~~~

## Things you can try:
- Make sure the parent keys of a dotted key already exist and hold arrays
- Add the entry manually if the file is built dynamically`,
	}

	sessionRequiredIssue = &Issue{
		id: SessionRequiredId,
		mdMsg: `
# Installing dependencies needs an interactive session!

## Things you can try:
- Run the install from a terminal
- Answer every prompt with yes in CI:
~~~
$ assetctl install blog --with-deps --yes
~~~`,
	}

	ledgerUnreadableIssue = &Issue{
		id: LedgerUnreadableId,
		mdMsg: `
# The install ledger cannot be read!

The ledger records which operations already ran. It is plain YAML and may
have been damaged by a manual edit or an interrupted write.

## Things you can try:
- Fix the YAML by hand (it is safe to edit)
- Move the file away; operations that are not reinstallable will then be
  detected from the files on disk where possible`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

## Things you can try:
- Check the permissions of the application directory
- Run assetctl as the user that owns the application files`,
	}

	installFailedIssue = &Issue{
		id: InstallFailedId,
		mdMsg: `
# Some assets failed to install!

Operations that succeeded were kept; nothing is rolled back.

## Things you can try:
- Rerun with ` + "`--verbose`" + ` to see every operation
- Preview what would happen:
~~~
$ assetctl install <module> --dry-run
~~~`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():     fileNotFoundIssue,
		configLoadFailedIssue.Id(): configLoadFailedIssue,
		manifestInvalidIssue.Id():  manifestInvalidIssue,
		moduleNotFoundIssue.Id():   moduleNotFoundIssue,
		dependencyCycleIssue.Id():  dependencyCycleIssue,
		targetTooLargeIssue.Id():   targetTooLargeIssue,
		malformedTargetIssue.Id():  malformedTargetIssue,
		sessionRequiredIssue.Id():  sessionRequiredIssue,
		ledgerUnreadableIssue.Id(): ledgerUnreadableIssue,
		permissionDeniedIssue.Id(): permissionDeniedIssue,
		installFailedIssue.Id():    installFailedIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	ids := slices.Sorted(maps.Keys(issues))
	out := make([]*Issue, 0, len(ids))
	for _, id := range ids {
		out = append(out, issues[id])
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Classify maps an error to the issue page that explains it. Unrecognized
// errors map to InstallFailedId.
func Classify(err error) Id {
	switch {
	case errors.Is(err, asset.ErrCircularDependency):
		return DependencyCycleId
	case errors.Is(err, asset.ErrTooLarge):
		return TargetTooLargeId
	case errors.Is(err, asset.ErrMalformedTarget):
		return MalformedTargetId
	case errors.Is(err, asset.ErrCapabilityMissing):
		return SessionRequiredId
	case errors.Is(err, asset.ErrNotFound):
		return FileNotFoundId
	case errors.Is(err, asset.ErrUnknownOperationType):
		return ManifestInvalidId
	case errors.Is(err, os.ErrPermission):
		return PermissionDeniedId
	default:
		return InstallFailedId
	}
}
