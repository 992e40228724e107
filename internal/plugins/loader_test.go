package plugins

import (
	"errors"
	"os"
	"path/filepath"
	"plugin"
	"testing"
	"time"

	"github.com/EchoPBX/c2host/internal/config"
	"github.com/EchoPBX/c2host/pkg/sdk"
	goerrors "github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLibrary struct {
	sym plugin.Symbol
	err error
}

func (f fakeLibrary) Lookup(string) (plugin.Symbol, error) { return f.sym, f.err }

// libraries maps a path to what opening it yields.
type libraries map[string]Library

func (ls libraries) open(path string) (Library, error) {
	if lib, ok := ls[path]; ok {
		return lib, nil
	}
	return nil, errors.New("plugin.Open: not a plugin")
}

type stubPlugin struct{ id sdk.PluginID }

func (s *stubPlugin) SendCommand(p string, _ sdk.State) (string, error) { return "ack " + p, nil }
func (s *stubPlugin) PluginID() sdk.PluginID                            { return s.id }
func (s *stubPlugin) Close(sdk.State)                                   {}

func stubModule(name string) *sdk.RootModule {
	return sdk.NewRootModule(name, func(_ sdk.Sender, id sdk.PluginID) (sdk.Plugin, error) {
		return &stubPlugin{id: id}, nil
	})
}

func writeLib(t *testing.T, dir, name string, mod time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name+LibrarySuffix)
	require.NoError(t, os.WriteFile(p, []byte("ELF "+p), 0o644))
	require.NoError(t, os.Chtimes(p, mod, mod))
	return p
}

func profileDirs(t *testing.T) (string, string) {
	root := t.TempDir()
	return filepath.Join(root, "debug"), filepath.Join(root, "release")
}

func TestPathPrefersNewerProfile(t *testing.T) {
	debug, release := profileDirs(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	writeLib(t, debug, "fw", base)
	rel := writeLib(t, release, "fw", base.Add(time.Minute))

	l := NewLoader(zap.NewNop(), WithSearchDirs(debug, release))
	got, err := l.Path("fw")
	require.NoError(t, err)
	assert.Equal(t, rel, got)

	dbg := writeLib(t, debug, "fw", base.Add(time.Hour))
	got, err = l.Path("fw")
	require.NoError(t, err)
	assert.Equal(t, dbg, got)
}

func TestPathTieGoesToFirstProfile(t *testing.T) {
	debug, release := profileDirs(t)
	same := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	dbg := writeLib(t, debug, "fw", same)
	writeLib(t, release, "fw", same)

	l := NewLoader(zap.NewNop(), WithSearchDirs(debug, release))
	for i := 0; i < 5; i++ {
		got, err := l.Path("fw")
		require.NoError(t, err)
		assert.Equal(t, dbg, got)
	}
}

func TestPathSingleProfile(t *testing.T) {
	debug, release := profileDirs(t)
	rel := writeLib(t, release, "fw", time.Now())

	got, err := NewLoader(zap.NewNop(), WithSearchDirs(debug, release)).Path("fw")
	require.NoError(t, err)
	assert.Equal(t, rel, got)
}

func TestPathNotFound(t *testing.T) {
	debug, release := profileDirs(t)
	_, err := NewLoader(zap.NewNop(), WithSearchDirs(debug, release)).Path("fw")
	require.Error(t, err)
	assert.True(t, sdk.IsKind(err, sdk.FileNotFound), "got %v", err)
}

func TestLoadRegistersEffectiveIDs(t *testing.T) {
	debug, release := profileDirs(t)
	fw := writeLib(t, debug, "fw", time.Now())
	relay := writeLib(t, release, "relay", time.Now())

	l := NewLoader(zap.NewNop(),
		WithSearchDirs(debug, release),
		WithOpener(libraries{
			fw:    fakeLibrary{sym: stubModule("fw")},
			relay: fakeLibrary{sym: func() *sdk.RootModule { return stubModule("relay") }},
		}.open))

	reg := NewRegistry()
	ids := l.Load([]config.PluginDescriptor{
		{Name: "fw"},
		{Name: "relay", Rename: "relay-a"},
	}, reg)

	assert.Equal(t, []sdk.PluginID{"fw", "relay-a"}, ids)
	assert.Equal(t, []sdk.PluginID{"fw", "relay-a"}, reg.IDs())
	_, ok := reg.Get("relay")
	assert.False(t, ok)
}

func TestLoadSkipsBadLibraries(t *testing.T) {
	debug, release := profileDirs(t)
	good := writeLib(t, debug, "good", time.Now())
	old := writeLib(t, debug, "old", time.Now())
	wrong := writeLib(t, debug, "wrong", time.Now())
	nosym := writeLib(t, debug, "nosym", time.Now())
	writeLib(t, debug, "garbage", time.Now())
	panics := writeLib(t, debug, "panics", time.Now())

	oldMod := stubModule("old")
	oldMod.Header.Version = sdk.Version{Major: sdk.InterfaceVersion.Major + 1}

	l := NewLoader(zap.NewNop(),
		WithSearchDirs(debug, release),
		WithOpener(func(path string) (Library, error) {
			switch path {
			case good:
				return fakeLibrary{sym: stubModule("good")}, nil
			case old:
				return fakeLibrary{sym: oldMod}, nil
			case wrong:
				return fakeLibrary{sym: new(int)}, nil
			case nosym:
				return fakeLibrary{err: errors.New("symbol RootModule not found")}, nil
			case panics:
				panic("bad init")
			}
			return nil, errors.New("plugin.Open: invalid ELF header")
		}))

	reg := NewRegistry()
	ids := l.Load([]config.PluginDescriptor{
		{Name: "missing"},
		{Name: "old"},
		{Name: "wrong"},
		{Name: "nosym"},
		{Name: "garbage"},
		{Name: "panics"},
		{Name: "good"},
	}, reg)

	assert.Equal(t, []sdk.PluginID{"good"}, ids)
	assert.Equal(t, 1, reg.Len())
}

func TestResolveErrorKinds(t *testing.T) {
	debug, release := profileDirs(t)
	old := writeLib(t, debug, "old", time.Now())
	oldMod := stubModule("old")
	oldMod.Header.Version = sdk.Version{Major: 0, Minor: 9}

	l := NewLoader(zap.NewNop(),
		WithSearchDirs(debug, release),
		WithOpener(libraries{old: fakeLibrary{sym: oldMod}}.open))

	_, err := l.resolve(config.PluginDescriptor{Name: "old"})
	assert.True(t, sdk.IsKind(err, sdk.FileInvalid), "got %v", err)

	_, err = l.resolve(config.PluginDescriptor{Name: "absent"})
	assert.True(t, sdk.IsKind(err, sdk.FileNotFound), "got %v", err)
}

func TestVersionIsCheckedBeforeConstructor(t *testing.T) {
	mod := &sdk.RootModule{Header: sdk.Header{Name: "x", Version: sdk.Version{Major: 7}}}
	l := NewLoader(zap.NewNop(), WithBuiltins(map[string]*sdk.RootModule{"x": mod}))

	err := l.check("x", mod)
	require.Error(t, err)
	var coded *goerrors.Error
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, "7.0.0", coded.Context["library_version"])
	assert.True(t, sdk.IsKind(err, sdk.FileInvalid))
}

func TestLoadBuiltinSkipsFileSearch(t *testing.T) {
	l := NewLoader(zap.NewNop(),
		WithSearchDirs(t.TempDir()),
		WithBuiltins(map[string]*sdk.RootModule{"echo": stubModule("echo")}))

	reg := NewRegistry()
	ids := l.Load([]config.PluginDescriptor{{Name: "echo", Rename: "e1"}}, reg)
	assert.Equal(t, []sdk.PluginID{"e1"}, ids)
}

func TestLoadDigestPin(t *testing.T) {
	debug, release := profileDirs(t)
	fw := writeLib(t, debug, "fw", time.Now())
	digest, err := LibraryDigest(fw)
	require.NoError(t, err)
	require.Len(t, digest, 64)

	l := NewLoader(zap.NewNop(),
		WithSearchDirs(debug, release),
		WithOpener(libraries{fw: fakeLibrary{sym: stubModule("fw")}}.open))

	reg := NewRegistry()
	ids := l.Load([]config.PluginDescriptor{{Name: "fw", Blake3: "blake3:" + digest}}, reg)
	assert.Equal(t, []sdk.PluginID{"fw"}, ids)

	reg = NewRegistry()
	ids = l.Load([]config.PluginDescriptor{{Name: "fw", Blake3: "00ff"}}, reg)
	assert.Empty(t, ids)
	assert.Zero(t, reg.Len())
}

func TestLoadDuplicateIDLastOneWins(t *testing.T) {
	l := NewLoader(zap.NewNop(), WithBuiltins(map[string]*sdk.RootModule{
		"fw-v1": sdk.NewRootModule("fw-v1", func(_ sdk.Sender, id sdk.PluginID) (sdk.Plugin, error) {
			return &stubPlugin{id: "first"}, nil
		}),
		"fw-v2": sdk.NewRootModule("fw-v2", func(_ sdk.Sender, id sdk.PluginID) (sdk.Plugin, error) {
			return &stubPlugin{id: "second"}, nil
		}),
	}))

	reg := NewRegistry()
	ids := l.Load([]config.PluginDescriptor{
		{Name: "fw-v1", Rename: "fw"},
		{Name: "fw-v2", Rename: "fw"},
	}, reg)

	assert.Equal(t, []sdk.PluginID{"fw"}, ids)
	require.Equal(t, 1, reg.Len())
	ctor, ok := reg.Get("fw")
	require.True(t, ok)
	p, err := ctor(nil, "fw")
	require.NoError(t, err)
	assert.Equal(t, sdk.PluginID("second"), p.PluginID())
}
