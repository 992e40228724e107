// Package sdk is the contract between the c2host process and its plugins.
//
// A plugin is a Go shared object built with -buildmode=plugin that exports a
// single symbol named RootModule. The host reads RootModule.Header first and
// only calls RootModule.New when the header's interface version is compatible
// with InterfaceVersion.
package sdk

import "fmt"

// RootSymbol is the name of the symbol every plugin library must export.
const RootSymbol = "RootModule"

// InterfaceVersion is the version of this contract compiled into the host.
// Bump Minor when fields are appended to RootModule or optional interfaces
// are added, Major when anything existing changes.
var InterfaceVersion = Version{Major: 1, Minor: 0, Patch: 0}

// Version is a major/minor/patch triple.
type Version struct {
	Major uint32 `json:"major" yaml:"major"`
	Minor uint32 `json:"minor" yaml:"minor"`
	Patch uint32 `json:"patch" yaml:"patch"`
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible reports whether a library built against lib can be driven by a
// host built against v. Majors must match; while the major is 0 the minors
// must match as well. Patch levels never matter.
func (v Version) Compatible(lib Version) bool {
	if v.Major != lib.Major {
		return false
	}
	if v.Major == 0 {
		return v.Minor == lib.Minor
	}
	return true
}

// Header identifies a plugin library.
type Header struct {
	Name    string
	Version Version
}

// RootModule is the table a plugin library exports.
//
// Fields are append-only: new capabilities are added after New so that
// libraries built against an older minor version keep their layout.
type RootModule struct {
	Header Header
	New    Constructor
}

// NewRootModule returns a RootModule stamped with the InterfaceVersion the
// plugin is being compiled against.
func NewRootModule(name string, ctor Constructor) *RootModule {
	return &RootModule{
		Header: Header{Name: name, Version: InterfaceVersion},
		New:    ctor,
	}
}
