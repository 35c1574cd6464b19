package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchpad-sh/launchpad/internal/domain/version"
)

func TestAliasTable_ResolveName(t *testing.T) {
	t.Parallel()

	table := DefaultAliasTable()
	assert.Equal(t, "nodejs.org", table.ResolveName("node"))
	assert.Equal(t, "nodejs.org", table.ResolveName("NODE"))
	assert.Equal(t, "redis.io", table.ResolveName("redis"))
	assert.Equal(t, "unknown-thing", table.ResolveName("unknown-thing"))
}

func TestAliasTable_LoadOverrides(t *testing.T) {
	t.Parallel()

	table := DefaultAliasTable()
	err := table.LoadOverrides([]byte("node: custom-node.example\n"))
	require.NoError(t, err)
	assert.Equal(t, "custom-node.example", table.ResolveName("node"))
}

func TestClient_Versions_NewestFirst(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"versions":["20.11.0","22.1.0","22.4.1","21.7.3"]}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	versions, err := c.Versions(context.Background(), "nodejs.org")
	require.NoError(t, err)
	require.Len(t, versions, 4)
	assert.Equal(t, "22.4.1", versions[0].String())
	assert.Equal(t, "20.11.0", versions[3].String())
}

func TestClient_TarballURL(t *testing.T) {
	t.Parallel()

	c := New(Config{BaseURL: "https://dist.pkgx.dev"})
	v, err := version.Parse("22.4.1")
	require.NoError(t, err)

	url := c.TarballURL("nodejs.org", v, "darwin", "aarch64", FormatTarXZ)
	assert.Equal(t, "https://dist.pkgx.dev/nodejs.org/darwin/aarch64/v22.4.1.tar.xz", url)
}

func TestClient_Sidecar(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pkg.tar.xz.sha256" {
			fmt.Fprint(w, "deadbeef  pkg.tar.xz\n")
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	hash, ok := c.Sidecar(context.Background(), srv.URL+"/pkg.tar.xz")
	require.True(t, ok)
	assert.Equal(t, "deadbeef", hash)

	_, ok = c.Sidecar(context.Background(), srv.URL+"/missing.tar.xz")
	assert.False(t, ok)
}
