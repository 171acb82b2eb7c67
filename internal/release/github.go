package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"toolup/internal/config"
	"toolup/internal/logger"
)

// GitHubRelease is the subset of the GitHub release JSON response we use.
type GitHubRelease struct {
	TagName string `json:"tag_name"` // The release tag (e.g., v1.0.0)
	Name    string `json:"name"`     // Release title, used when tag_name is empty
	Assets  []struct {
		Name               string `json:"name"`                 // Asset filename
		BrowserDownloadURL string `json:"browser_download_url"` // Direct download URL for the asset
	} `json:"assets"`
}

// Tag returns tag_name, falling back to the release name.
func (r GitHubRelease) Tag() string {
	if tag := strings.TrimSpace(r.TagName); tag != "" {
		return tag
	}
	return strings.TrimSpace(r.Name)
}

// DownloadURLs lists browser_download_url values in API order.
func (r GitHubRelease) DownloadURLs() []string {
	urls := make([]string, 0, len(r.Assets))
	for _, a := range r.Assets {
		if a.BrowserDownloadURL != "" {
			urls = append(urls, a.BrowserDownloadURL)
		}
	}
	return urls
}

// Resolved is the outcome of a successful resolution.
type Resolved struct {
	AssetURL string
	Tag      string
}

// Asset returns the selected asset with its inferred format.
func (r Resolved) Asset() Asset { return NewAsset(r.AssetURL) }

// Getter fetches a URL into memory. *fetch.Fetcher satisfies it.
type Getter interface {
	FetchBytes(ctx context.Context, url string, header http.Header) ([]byte, error)
}

// Resolver finds the release asset to install for a tool.
type Resolver struct {
	getter    Getter
	archToken string
	baseURL   string
}

// ResolverOption configures a Resolver during construction.
type ResolverOption func(*Resolver)

// WithBaseURL overrides the API root, e.g. for GitHub Enterprise or test servers.
func WithBaseURL(base string) ResolverOption {
	return func(r *Resolver) {
		r.baseURL = strings.TrimRight(base, "/")
	}
}

// NewResolver creates a resolver for the given architecture token (see ArchToken).
func NewResolver(getter Getter, archToken string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		getter:    getter,
		archToken: archToken,
		baseURL:   config.DefaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReleaseURL builds the API URL for a tool's release: /releases/latest for the
// latest alias, /releases/tags/{tag} otherwise.
func (r *Resolver) ReleaseURL(tool config.ToolSpec) string {
	base := fmt.Sprintf("%s/repos/%s/%s/releases", r.baseURL, url.PathEscape(tool.Owner), url.PathEscape(tool.Repo))
	tag := tool.ReleaseTag()
	if tag == config.LatestTag {
		return base + "/latest"
	}
	return base + "/tags/" + url.PathEscape(tag)
}

// Resolve queries the release and selects the asset for this host.
func (r *Resolver) Resolve(ctx context.Context, tool config.ToolSpec) (Resolved, error) {
	pattern, err := regexp.Compile(tool.AssetPattern)
	if err != nil {
		return Resolved{}, &ResolutionError{Kind: BadPattern, Detail: tool.Name, Err: err}
	}

	release, err := r.fetchRelease(ctx, tool)
	if err != nil {
		return Resolved{}, err
	}
	logger.Debug("[DEBUG] Release tag: %s with %d assets\n", release.Tag(), len(release.Assets))

	assets := make([]Asset, 0, len(release.Assets))
	for _, u := range release.DownloadURLs() {
		assets = append(assets, NewAsset(u))
	}

	if pinned := tool.PinnedFormat(); pinned != "" {
		logger.Debug("[DEBUG] %s asset pattern pins .%s; archive preference tiers only apply if they match it\n", tool.Name, pinned)
	}

	asset, ok := SelectAsset(assets, r.archToken, pattern)
	if !ok {
		return Resolved{}, &ResolutionError{
			Kind:   NoMatchingAsset,
			Detail: fmt.Sprintf("%s release %s has no asset matching arch %s and pattern %s", tool.Repository(), release.Tag(), r.archToken, tool.AssetPattern),
		}
	}
	logger.Debug("[DEBUG] Found matching asset: %s\n", asset.Name)

	return Resolved{AssetURL: asset.URL, Tag: release.Tag()}, nil
}

func (r *Resolver) fetchRelease(ctx context.Context, tool config.ToolSpec) (GitHubRelease, error) {
	apiURL := r.ReleaseURL(tool)
	logger.Debug("[DEBUG] Fetching GitHub release from URL: %s\n", apiURL)

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	body, err := r.getter.FetchBytes(ctx, apiURL, header)
	if err != nil {
		return GitHubRelease{}, &ResolutionError{Kind: ApiUnavailable, Detail: tool.Repository(), Err: err}
	}

	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return GitHubRelease{}, &ResolutionError{
			Kind:   ApiUnavailable,
			Detail: "failed to decode GitHub release JSON for " + tool.Repository(),
			Err:    err,
		}
	}
	return release, nil
}
