package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const payload = "MZ fake executable"

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

type server struct {
	*httptest.Server
	hits int32
	ua   atomic.Value
}

func newServer(t *testing.T) *server {
	t.Helper()
	s := &server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&s.hits, 1)
		s.ua.Store(r.UserAgent())
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(payload))
		case "/empty":
		case "/missing":
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

func newManager(s *server) *Manager {
	m := NewManager("/tools", nil)
	m.Client = s.Client()
	m.FS = afero.NewMemMapFs()
	m.UserAgent = "ASXHub-test"
	m.Assets = map[string]Asset{
		"tool":    {Name: "tool", URL: s.URL + "/ok", FileName: "tool.exe"},
		"checked": {Name: "checked", URL: s.URL + "/ok", FileName: "checked.exe", SHA256: digest(payload)},
		"bad-sum": {Name: "bad-sum", URL: s.URL + "/ok", FileName: "bad.exe", SHA256: digest("other")},
		"empty":   {Name: "empty", URL: s.URL + "/empty", FileName: "empty.exe"},
		"missing": {Name: "missing", URL: s.URL + "/missing", FileName: "missing.exe"},
	}
	return m
}

func TestFetchDownloadsOnceAndReuses(t *testing.T) {
	s := newServer(t)
	m := newManager(s)
	ctx := context.Background()

	path, err := m.Fetch(ctx, "checked")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tools", "checked.exe"), path)
	data, err := afero.ReadFile(m.FS, path)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	assert.Equal(t, "ASXHub-test", s.ua.Load())

	_, err = m.Fetch(ctx, "checked")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&s.hits), "verified file is reused")

	// A tampered file is downloaded again.
	require.NoError(t, afero.WriteFile(m.FS, path, []byte("tampered"), 0o644))
	_, err = m.Fetch(ctx, "checked")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&s.hits))
}

func TestFetchFailures(t *testing.T) {
	s := newServer(t)
	m := newManager(s)
	ctx := context.Background()

	_, err := m.Fetch(ctx, "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)

	_, err = m.Fetch(ctx, "empty")
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = m.Fetch(ctx, "bad-sum")
	assert.True(t, errors.Is(err, ErrChecksum))
	ok, _ := afero.Exists(m.FS, filepath.Join("/tools", "bad.exe"))
	assert.False(t, ok, "a file failing verification is not kept")

	_, err = m.Fetch(ctx, "nope")
	assert.True(t, errors.Is(err, ErrUnknown))

	infos, err := afero.ReadDir(m.FS, "/tools")
	require.NoError(t, err)
	for _, fi := range infos {
		assert.False(t, strings.HasSuffix(fi.Name(), ".part"), "temp file %s left behind", fi.Name())
	}
}

func TestFetchSoftware(t *testing.T) {
	s := newServer(t)
	m := newManager(s)
	m.Software = []Software{{ID: "app", Name: "App", URL: s.URL + "/ok", FileName: "AppSetup.exe"}}

	path, err := m.FetchSoftware(context.Background(), "app", "/downloads")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/downloads", "AppSetup.exe"), path)

	_, err = m.FetchSoftware(context.Background(), "other", "/downloads")
	assert.True(t, errors.Is(err, ErrUnknown))
}

func TestOverride(t *testing.T) {
	m := NewManager("/tools", nil)
	require.NoError(t, m.Override("explorer-blur", "https://example.com/blur.dll", "ABCDEF"))
	a := m.Assets["explorer-blur"]
	assert.Equal(t, "https://example.com/blur.dll", a.URL)
	assert.Equal(t, "abcdef", a.SHA256)
	assert.Equal(t, "ExplorerBlurMica.dll", a.FileName)

	require.NoError(t, m.Override("explorer-blur", "", ""))
	assert.Equal(t, "https://example.com/blur.dll", m.Assets["explorer-blur"].URL)

	assert.True(t, errors.Is(m.Override("nope", "x", ""), ErrUnknown))
}

func TestDefaultCatalogs(t *testing.T) {
	assets := DefaultAssets()
	for _, name := range []string{"nvidia-profile-inspector", "nvidia-profile", "asx-power-plan", "explorer-blur"} {
		a, ok := assets[name]
		require.True(t, ok, "missing asset %s", name)
		assert.True(t, strings.HasPrefix(a.URL, "https://"), a.URL)
		assert.NotEmpty(t, a.FileName)
	}

	seen := make(map[string]bool)
	for _, s := range DefaultSoftware() {
		assert.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
		assert.True(t, strings.HasPrefix(s.URL, "https://"), s.URL)
	}

	names := NewManager("", nil).AssetList()
	require.Len(t, names, 4)
	assert.Equal(t, "asx-power-plan", names[0].Name)
}

func TestFetchWarnsWithoutChecksum(t *testing.T) {
	s := newServer(t)
	m := newManager(s)
	core, logs := observer.New(zapcore.WarnLevel)
	m.Log = zap.New(core)
	ctx := context.Background()

	_, err := m.Fetch(ctx, "tool")
	require.NoError(t, err)
	_, err = m.Fetch(ctx, "checked")
	require.NoError(t, err)

	warned := logs.FilterField(zap.String("asset", "tool")).All()
	require.Len(t, warned, 1)
	assert.Contains(t, warned[0].Message, "assets.tool.sha256")
	assert.Zero(t, logs.FilterField(zap.String("asset", "checked")).Len())
}

func TestOverridePinsDefaultAsset(t *testing.T) {
	s := newServer(t)
	m := NewManager("/tools", nil)
	m.Client = s.Client()
	m.FS = afero.NewMemMapFs()
	require.Empty(t, m.Assets["asx-power-plan"].SHA256)
	require.True(t, strings.HasPrefix(m.Assets["asx-power-plan"].URL, ReleaseBase))

	require.NoError(t, m.Override("asx-power-plan", s.URL+"/ok", digest(payload)))
	path, err := m.Fetch(context.Background(), "asx-power-plan")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tools", "ASXHub.pow"), path)

	require.NoError(t, m.Override("asx-power-plan", "", digest("other")))
	require.NoError(t, m.FS.Remove(path))
	_, err = m.Fetch(context.Background(), "asx-power-plan")
	assert.Error(t, err, "a pinned checksum rejects a different payload")
}
