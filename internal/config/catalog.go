package config

// DefaultCatalog is the curated tool list, in install order.
var DefaultCatalog = []ToolSpec{
	{Name: "jq", Owner: "jqlang", Repo: "jq", Executable: "jq", AssetPattern: `^jq-linux`},
	{Name: "yq", Owner: "mikefarah", Repo: "yq", Executable: "yq", AssetPattern: `^yq_linux_[a-z0-9]+$`},
	{Name: "ripgrep", Owner: "BurntSushi", Repo: "ripgrep", Executable: "rg", AssetPattern: `unknown-linux-(musl|gnu)`},
	{Name: "fd", Owner: "sharkdp", Repo: "fd", Executable: "fd", AssetPattern: `unknown-linux-musl`},
	{Name: "bat", Owner: "sharkdp", Repo: "bat", Executable: "bat", AssetPattern: `unknown-linux-musl`},
	{Name: "fzf", Owner: "junegunn", Repo: "fzf", Executable: "fzf", AssetPattern: `linux_`},
	{Name: "delta", Owner: "dandavison", Repo: "delta", Executable: "delta", AssetPattern: `unknown-linux-(musl|gnu)`},
	{Name: "lazygit", Owner: "jesseduffield", Repo: "lazygit", Executable: "lazygit", AssetPattern: `(?i)_linux_`},
	{Name: "nnn", Owner: "jarun", Repo: "nnn", Executable: "nnn", AssetPattern: `^nnn-musl-static`},
	{Name: "eza", Owner: "eza-community", Repo: "eza", Executable: "eza", AssetPattern: `unknown-linux-(musl|gnu)`},
	{Name: "zoxide", Owner: "ajeetdsouza", Repo: "zoxide", Executable: "zoxide", AssetPattern: `unknown-linux-musl`},
	{Name: "btop", Owner: "aristocratos", Repo: "btop", Executable: "btop", AssetPattern: `linux-musl\.tbz$`},
	{Name: "fastfetch", Owner: "fastfetch-cli", Repo: "fastfetch", Executable: "fastfetch", AssetPattern: `^fastfetch-linux-.*\.deb$`},
}

// Lookup returns the catalog entries named in requested, in catalog order and
// without duplicates, plus the requested names that are not in the catalog.
func Lookup(catalog []ToolSpec, requested []string) ([]ToolSpec, []string) {
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}

	var found []ToolSpec
	for _, tool := range catalog {
		if want[tool.Name] {
			found = append(found, tool)
			delete(want, tool.Name)
		}
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, name := range requested {
		if want[name] && !seen[name] {
			unknown = append(unknown, name)
			seen[name] = true
		}
	}
	return found, unknown
}
