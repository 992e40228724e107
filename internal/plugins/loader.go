package plugins

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"plugin"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/zap"
)

// LibrarySuffix is appended to a plugin name to form its file name.
const LibrarySuffix = ".so"

// Library is an opened plugin library.
type Library interface {
	Lookup(symName string) (plugin.Symbol, error)
}

// OpenFunc opens the library at path.
type OpenFunc func(path string) (Library, error)

// OpenLibrary opens a Go plugin built with -buildmode=plugin.
func OpenLibrary(path string) (Library, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Loader resolves plugin descriptors to validated root modules.
type Loader struct {
	log      *zap.Logger
	dirs     []string
	open     OpenFunc
	builtins map[string]*sdk.RootModule
	host     sdk.Version
}

type LoaderOption func(*Loader)

// WithSearchDirs sets the build-profile directories, in tie-break order.
func WithSearchDirs(dirs ...string) LoaderOption {
	return func(l *Loader) { l.dirs = dirs }
}

func WithOpener(open OpenFunc) LoaderOption {
	return func(l *Loader) { l.open = open }
}

// WithBuiltins registers root modules compiled into the host. A descriptor
// naming a builtin skips the file search.
func WithBuiltins(mods map[string]*sdk.RootModule) LoaderOption {
	return func(l *Loader) { l.builtins = mods }
}

// WithHostVersion overrides the interface version libraries are checked
// against.
func WithHostVersion(v sdk.Version) LoaderOption {
	return func(l *Loader) { l.host = v }
}

func NewLoader(log *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		log:  log.Named("loader"),
		dirs: []string{"build/debug", "build/release"},
		open: OpenLibrary,
		host: sdk.InterfaceVersion,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load resolves every descriptor and registers the constructors of those
// that validate. Failures are logged and skip only the offending plugin.
// It returns the ids registered by this pass, in order.
func (l *Loader) Load(descs []config.PluginDescriptor, reg *Registry) []sdk.PluginID {
	var loaded []sdk.PluginID
	seen := make(map[sdk.PluginID]string)

	for _, d := range descs {
		mod, err := l.resolve(d)
		if err != nil {
			l.log.Error("could not load library",
				zap.String("plugin", d.Name),
				zap.Error(err))
			continue
		}

		id := d.EffectiveID()
		if reg.Register(id, mod.New) {
			l.log.Warn("duplicate plugin id, earlier registration replaced",
				zap.String("id", string(id)),
				zap.String("replaced", seen[id]),
				zap.String("by", d.Name))
		}
		if _, ok := seen[id]; !ok {
			loaded = append(loaded, id)
		}
		seen[id] = d.Name

		l.log.Info("library loaded",
			zap.String("id", string(id)),
			zap.String("library", mod.Header.Name),
			zap.Stringer("version", mod.Header.Version))
	}
	return loaded
}

func (l *Loader) resolve(d config.PluginDescriptor) (*sdk.RootModule, error) {
	if mod, ok := l.builtins[d.Name]; ok {
		return mod, l.check(d.Name, mod)
	}

	path, err := l.Path(d.Name)
	if err != nil {
		return nil, err
	}

	digest, err := LibraryDigest(path)
	if err != nil {
		return nil, NewLibraryInvalidError(d.Name, path, err)
	}
	if d.Blake3 != "" && !digestMatches(d.Blake3, digest) {
		return nil, NewDigestMismatchError(d.Name, path, d.Blake3, digest)
	}
	l.log.Debug("resolved library",
		zap.String("plugin", d.Name),
		zap.String("path", path),
		zap.String("blake3", digest))

	lib, err := l.openSafely(path)
	if err != nil {
		return nil, NewLibraryInvalidError(d.Name, path, err)
	}
	sym, err := lib.Lookup(sdk.RootSymbol)
	if err != nil {
		return nil, NewLibraryInvalidError(d.Name, path, err)
	}
	mod, err := rootModule(sym)
	if err != nil {
		return nil, NewLibraryInvalidError(d.Name, path, err)
	}
	return mod, l.check(d.Name, mod)
}

// Path picks the library file for name. When several search directories
// hold one, the most recently modified wins; equal times go to the earlier
// directory.
func (l *Loader) Path(name string) (string, error) {
	var (
		best       string
		bestMod    time.Time
		candidates = make([]string, 0, len(l.dirs))
	)
	for _, dir := range l.dirs {
		p := filepath.Join(dir, name+LibrarySuffix)
		candidates = append(candidates, p)

		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", NewLibraryInvalidError(name, p, err)
		}
		if info.IsDir() {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = p, info.ModTime()
		}
	}
	if best == "" {
		return "", NewLibraryNotFoundError(name, candidates)
	}
	return best, nil
}

// check validates the header before anything else in mod is used.
func (l *Loader) check(name string, mod *sdk.RootModule) error {
	if !l.host.Compatible(mod.Header.Version) {
		return NewVersionMismatchError(name, l.host, mod.Header.Version)
	}
	if mod.New == nil {
		return NewLibraryInvalidError(name, "", errors.New("root module has no constructor"))
	}
	return nil
}

func (l *Loader) openSafely(path string) (lib Library, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("library panicked while opening: %v", r)
		}
	}()
	return l.open(path)
}

func rootModule(sym plugin.Symbol) (*sdk.RootModule, error) {
	var mod *sdk.RootModule
	switch v := sym.(type) {
	case *sdk.RootModule:
		mod = v
	case **sdk.RootModule:
		if v != nil {
			mod = *v
		}
	case func() *sdk.RootModule:
		mod = v()
	default:
		return nil, fmt.Errorf("symbol %s has unexpected type %T", sdk.RootSymbol, sym)
	}
	if mod == nil {
		return nil, fmt.Errorf("symbol %s is nil", sdk.RootSymbol)
	}
	return mod, nil
}
