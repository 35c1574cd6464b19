// Package registry resolves package aliases to canonical domains and talks
// to the pkgx-compatible distribution endpoint for versions and tarballs,
// per spec.md §4.2.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/launchpad-sh/launchpad/internal/domain/lperr"
	"github.com/launchpad-sh/launchpad/internal/domain/version"
)

const defaultBaseURL = "https://dist.pkgx.dev"

// Format is a tarball archive format.
type Format string

const (
	FormatTarXZ Format = "tar.xz"
	FormatTarGZ Format = "tar.gz"
)

// Client is the registry client contract (spec §4.2).
type Client struct {
	http    *http.Client
	baseURL string
	alias   *AliasTable
}

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Alias   *AliasTable
}

// New builds a registry Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	alias := cfg.Alias
	if alias == nil {
		alias = DefaultAliasTable()
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		alias:   alias,
	}
}

// ResolveName maps a user-friendly alias to its canonical registry domain.
func (c *Client) ResolveName(alias string) string {
	return c.alias.ResolveName(alias)
}

// versionIndex is the shape of the per-domain version manifest served at
// <baseURL>/<domain>/versions.json.
type versionIndex struct {
	Versions []string `json:"versions"`
}

// Versions returns every known version of domain, newest first.
func (c *Client) Versions(ctx context.Context, domain string) ([]version.SemVer, error) {
	url := fmt.Sprintf("%s/%s/versions.json", c.baseURL, domain)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, lperr.Wrap(lperr.KindTransport, fmt.Sprintf("fetch versions for %s", domain), err)
	}

	var idx versionIndex
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil, lperr.Wrap(lperr.KindTransport, fmt.Sprintf("parse versions for %s", domain), err)
	}

	out := make([]version.SemVer, 0, len(idx.Versions))
	for _, raw := range idx.Versions {
		v, err := version.Parse(raw)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return version.Compare(out[i], out[j]) > 0 })
	return out, nil
}

// TarballURL builds the download URL for (domain, v, platform, arch, format),
// per spec §6: https://dist.pkgx.dev/<domain>/<platform>/<arch>/v<version>.<format>
func (c *Client) TarballURL(domain string, v version.SemVer, platform, arch string, format Format) string {
	return fmt.Sprintf("%s/%s/%s/%s/v%s.%s", c.baseURL, domain, platform, arch, v.String(), format)
}

// CompanionRef is a package a domain always needs installed alongside it
// (e.g. a runtime's matching package manager), with its own constraint.
type CompanionRef struct {
	Domain     string `json:"domain"`
	Constraint string `json:"constraint"`
}

// companionIndex is the shape of the optional per-domain companion
// manifest served at <baseURL>/<domain>/companions.json.
type companionIndex struct {
	Companions []CompanionRef `json:"companions"`
}

// Companions returns domain's declared companion packages, mirroring
// dep's transitive-constraint walk in ensure.go but without a general
// conflict solver (spec §5). A missing companions.json is not an error:
// most domains have none.
func (c *Client) Companions(ctx context.Context, domain string) []CompanionRef {
	url := fmt.Sprintf("%s/%s/companions.json", c.baseURL, domain)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil
	}

	var idx companionIndex
	if err := json.Unmarshal(body, &idx); err != nil {
		return nil
	}
	return idx.Companions
}

// Sidecar fetches the optional <url>.sha256 integrity hint. Absence is
// non-fatal: the bool return reports whether one was found.
func (c *Client) Sidecar(ctx context.Context, tarballURL string) (string, bool) {
	body, err := c.get(ctx, tarballURL+".sha256")
	if err != nil {
		return "", false
	}
	fields := strings.Fields(string(body))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry: %s returned %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
