package imap

import (
	"imap-engine/internal/config"
)

// Folder is the client's cached view of one mailbox (component G). It is
// shared by every Command that names the mailbox, so that FETCH/STORE/EXPUNGE
// results update a single place the caller can read from.
type Folder struct {
	Name      string // decoded (UTF-8) mailbox name, as given to the caller
	Delimiter byte   // hierarchy separator reported by LIST/NAMESPACE, 0 if unknown

	Attributes []string // \Noselect, \HasChildren, \Marked, ... from LIST
	Subscribed bool

	UIDValidity    uint32
	UIDNext        uint32
	Exists         uint32
	Recent         uint32
	Unseen         uint32
	Flags          []string
	PermanentFlags []string
	HighestModSeq  uint64
	ReadOnly       bool
}

// folderCache indexes Folders by their server-encoded name, canonicalising a
// leading INBOX component the way the teacher's internal/config.NormalizeINBOX
// does for its allow/block matching, reused here as the cache comparator
// instead of being re-implemented.
type folderCache struct {
	delimiter byte
	byName    map[string]*Folder
}

func newFolderCache() *folderCache {
	return &folderCache{byName: make(map[string]*Folder)}
}

func (fc *folderCache) key(name string) string {
	return config.NormalizeINBOX(name, fc.delimiter)
}

// get returns the cached Folder for name, creating an empty one on first
// reference so that a Command built before the mailbox has ever been listed
// still has somewhere to accumulate STATUS/SELECT data into.
func (fc *folderCache) get(name string) *Folder {
	key := fc.key(name)
	if f, ok := fc.byName[key]; ok {
		return f
	}
	f := &Folder{Name: name, Delimiter: fc.delimiter}
	fc.byName[key] = f
	return f
}

// lookup returns the cached Folder for name without creating one.
func (fc *folderCache) lookup(name string) (*Folder, bool) {
	f, ok := fc.byName[fc.key(name)]
	return f, ok
}

// rename moves the cache entry for oldName to newName, preserving the
// existing Folder's accumulated state (RENAME keeps UIDVALIDITY, but a
// subsequent SELECT will refresh UIDNEXT/EXISTS anyway).
func (fc *folderCache) rename(oldName, newName string) {
	oldKey := fc.key(oldName)
	f, ok := fc.byName[oldKey]
	if !ok {
		return
	}
	delete(fc.byName, oldKey)
	f.Name = newName
	fc.byName[fc.key(newName)] = f
}

// remove drops the cache entry for name.
func (fc *folderCache) remove(name string) {
	delete(fc.byName, fc.key(name))
}

// setDelimiter records the hierarchy separator once LIST/NAMESPACE reports
// it. Folders referenced before the delimiter was known are re-keyed so
// INBOX canonicalisation keeps working under the now-known separator.
func (fc *folderCache) setDelimiter(sep byte) {
	if fc.delimiter == sep || sep == 0 {
		return
	}
	fc.delimiter = sep
	rekeyed := make(map[string]*Folder, len(fc.byName))
	for _, f := range fc.byName {
		f.Delimiter = sep
		rekeyed[fc.key(f.Name)] = f
	}
	fc.byName = rekeyed
}
