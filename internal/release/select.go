package release

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Architecture tokens matched against asset names.
const (
	AMD64Token = `(x86_64|amd64|linux64)`
	ARM64Token = `(aarch64|arm64)`
)

// ArchToken maps a host CPU identifier to the regular-expression fragment that
// matches asset names built for it. Any other CPU is UnsupportedArchitecture.
func ArchToken(cpu string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(cpu)) {
	case "x86_64", "amd64":
		return AMD64Token, nil
	case "aarch64", "arm64":
		return ARM64Token, nil
	default:
		return "", &ResolutionError{
			Kind:   UnsupportedArchitecture,
			Detail: fmt.Sprintf("no asset naming convention known for CPU %q (supported: x86_64, aarch64)", cpu),
		}
	}
}

// Format is an asset container format inferred from its file name.
type Format string

const (
	FormatTarGz  Format = "tar.gz"
	FormatTarXz  Format = "tar.xz"
	FormatTarBz2 Format = "tar.bz2"
	FormatTar    Format = "tar"
	FormatZip    Format = "zip"
	FormatDeb    Format = "deb"
	Format7z     Format = "7z"
	FormatGz     Format = "gz"
	FormatXz     Format = "xz"
	FormatRaw    Format = "raw"
)

// suffixFormats is ordered so compound suffixes are checked before ".gz"/".xz".
var suffixFormats = []struct {
	suffix string
	format Format
}{
	{".tar.gz", FormatTarGz},
	{".tgz", FormatTarGz},
	{".tar.xz", FormatTarXz},
	{".txz", FormatTarXz},
	{".tar.bz2", FormatTarBz2},
	{".tbz", FormatTarBz2},
	{".tbz2", FormatTarBz2},
	{".tar", FormatTar},
	{".zip", FormatZip},
	{".deb", FormatDeb},
	{".7z", Format7z},
	{".gz", FormatGz},
	{".xz", FormatXz},
}

// FormatOf infers the container format from a file name or URL. Names without
// a known suffix are raw executables.
func FormatOf(name string) Format {
	lower := strings.ToLower(path.Base(name))
	for _, sf := range suffixFormats {
		if strings.HasSuffix(lower, sf.suffix) {
			return sf.format
		}
	}
	return FormatRaw
}

// IsTar reports whether the format is a (possibly compressed) tarball.
func (f Format) IsTar() bool {
	switch f {
	case FormatTarGz, FormatTarXz, FormatTarBz2, FormatTar:
		return true
	}
	return false
}

// Asset is a downloadable release file.
type Asset struct {
	URL    string
	Name   string
	Format Format
}

// NewAsset derives name and format from a browser_download_url.
func NewAsset(url string) Asset {
	name := path.Base(url)
	return Asset{URL: url, Name: name, Format: FormatOf(name)}
}

// tiers, in priority order: lowest-friction archive formats first.
var tiers = []struct {
	name  string
	match func(Format) bool
}{
	{"tar.gz/tar.xz", func(f Format) bool { return f == FormatTarGz || f == FormatTarXz }},
	{"zip", func(f Format) bool { return f == FormatZip }},
	{"any", func(Format) bool { return true }},
}

// SelectAsset picks one asset for the architecture token and name pattern.
// Tier 1 wants a .tar.gz/.tar.xz, tier 2 a .zip, tier 3 anything. Inside a tier
// the first asset in API order wins.
func SelectAsset(assets []Asset, archToken string, pattern *regexp.Regexp) (Asset, bool) {
	archRe := regexp.MustCompile(`(?i)` + archToken)
	for _, tier := range tiers {
		for _, a := range assets {
			if archRe.MatchString(a.Name) && tier.match(strictFormat(a.Name)) && pattern.MatchString(a.Name) {
				return a, true
			}
		}
	}
	return Asset{}, false
}

// strictFormat only honours the literal ".tar.gz", ".tar.xz" and ".zip" suffixes
// for tiering; ".tgz"/".txz" fall through to the last tier.
func strictFormat(name string) Format {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"):
		return FormatTarGz
	case strings.HasSuffix(lower, ".tar.xz"):
		return FormatTarXz
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip
	}
	return FormatRaw
}
