package plugins

import (
	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/agilira/go-errors"
)

// Error codes, numerically aligned with sdk.Kind.
const (
	ErrCodeLibraryNotFound   = "C2_1001"
	ErrCodeLibraryInvalid    = "C2_1002"
	ErrCodeConstructorFailed = "C2_9999"
)

func NewLibraryNotFoundError(name string, candidates []string) *errors.Error {
	return errors.New(ErrCodeLibraryNotFound, "plugin library not found").
		WithUserMessage("No library file exists for this plugin in any search directory").
		WithContext("plugin", name).
		WithContext("candidates", candidates).
		WithSeverity("error")
}

func NewLibraryInvalidError(name, path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLibraryInvalid, "plugin library is invalid").
		WithUserMessage("The library could not be opened or does not export a usable root module").
		WithContext("plugin", name).
		WithContext("path", path).
		WithSeverity("error")
}

func NewVersionMismatchError(name string, host, lib sdk.Version) *errors.Error {
	return errors.New(ErrCodeLibraryInvalid, "interface version mismatch").
		WithUserMessage("The plugin was built against an incompatible host interface").
		WithContext("plugin", name).
		WithContext("host_version", host.String()).
		WithContext("library_version", lib.String()).
		WithSeverity("error")
}

func NewDigestMismatchError(name, path, want, got string) *errors.Error {
	return errors.New(ErrCodeLibraryInvalid, "library digest mismatch").
		WithUserMessage("The library file does not match its pinned blake3 digest").
		WithContext("plugin", name).
		WithContext("path", path).
		WithContext("want", want).
		WithContext("got", got).
		WithSeverity("error")
}

func NewConstructorError(id sdk.PluginID, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConstructorFailed, "plugin constructor failed").
		WithUserMessage("The plugin could not be instantiated").
		WithContext("plugin", string(id)).
		WithSeverity("critical")
}
