// Package config loads named IMAP connection profiles from a TOML file.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Security selects how a profile establishes transport security.
type Security string

const (
	SecurityNone                  Security = "none"
	SecurityAuto                  Security = "auto"
	SecuritySSL                   Security = "ssl"
	SecurityStartTLS              Security = "starttls"
	SecurityStartTLSWhenAvailable Security = "starttls_when_available"
)

// Config is the top-level TOML document: one or more named connection profiles.
type Config struct {
	Profiles []Profile `toml:"profile"`
}

// Profile describes one upstream IMAP account from the client's point of view.
type Profile struct {
	Name     string   `toml:"name"`
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	Security Security `toml:"security"`

	// The folder lists scope which mailboxes a consumer should touch; the same
	// allow/block semantics a read-only proxy once enforced against a
	// client, now applied by the client against itself.
	AllowedFolders  []string `toml:"allowed_folders"`
	BlockedFolders  []string `toml:"blocked_folders"`
	WritableFolders []string `toml:"writable_folders"`
}

// Load reads a TOML config file from path, validates it, and returns the Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	seen := make(map[string]bool, len(cfg.Profiles))
	for i, p := range cfg.Profiles {
		if seen[p.Name] {
			return nil, fmt.Errorf("config: duplicate profile name %q", p.Name)
		}
		seen[p.Name] = true

		if p.Security == "" {
			cfg.Profiles[i].Security = SecurityAuto
		}

		if len(p.AllowedFolders) > 0 && len(p.BlockedFolders) > 0 {
			return nil, fmt.Errorf("config: profile %q: allowed_folders and blocked_folders cannot both be set", p.Name)
		}

		for _, wf := range p.WritableFolders {
			if !cfg.Profiles[i].FolderAllowed(wf) {
				return nil, fmt.Errorf("config: profile %q: writable folder %q is not allowed by folder filter", p.Name, wf)
			}
		}
	}

	return &cfg, nil
}

// HasFolderFilter reports whether the profile has a folder allow or block list.
func (p *Profile) HasFolderFilter() bool {
	return len(p.AllowedFolders) > 0 || len(p.BlockedFolders) > 0
}

// FolderAllowed reports whether the named folder is in scope for this profile.
func (p *Profile) FolderAllowed(name string) bool {
	if len(p.AllowedFolders) > 0 {
		return matchesAny(name, p.AllowedFolders)
	}
	if len(p.BlockedFolders) > 0 {
		return !matchesAny(name, p.BlockedFolders)
	}
	return true
}

// FolderWritable reports whether the named folder is writable for this profile.
func (p *Profile) FolderWritable(name string) bool {
	return matchesAny(name, p.WritableFolders)
}

func matchesAny(name string, entries []string) bool {
	for _, entry := range entries {
		if folderMatch(name, entry) {
			return true
		}
	}
	return false
}

func folderMatch(name, pattern string) bool {
	n := NormalizeINBOX(name, '/')
	p := NormalizeINBOX(pattern, '/')
	if n == p {
		return true
	}
	return strings.HasPrefix(n, p+"/") || strings.HasPrefix(n, p+".")
}

// NormalizeINBOX uppercases a leading INBOX component, since INBOX is
// case-insensitive in IMAP (RFC 3501 §5.1). The component must be followed
// by a directory separator or the end of the string; sep is the separator
// discovered for the server the name belongs to ('/' and '.' are always
// accepted in addition, since most servers use one of those two).
func NormalizeINBOX(s string, sep byte) string {
	if len(s) >= 5 && strings.EqualFold(s[:5], "INBOX") {
		if len(s) == 5 || s[5] == sep || s[5] == '/' || s[5] == '.' {
			return "INBOX" + s[5:]
		}
	}
	return s
}

// LookupProfile returns the Profile with the given name, or nil if not found.
func (c *Config) LookupProfile(name string) *Profile {
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i]
		}
	}
	return nil
}
