package mirror

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// RepoID is the repository section name written to the repo file.
	RepoID = "dnfast-fastmirrors"
	// DefaultRepoFilePath is where the ranked mirror list is persisted.
	DefaultRepoFilePath = "/etc/yum.repos.d/dnfast-fastmirrors.repo"

	fedoraGPGKeyURL = "https://getfedora.org/static/fedora.gpg"
)

// RenderRepoFile serializes the ranked mirror list into dnf's .repo format.
// Mirrors appear as baseurl entries in preference order, using $releasever
// and $basearch so the file survives system upgrades. Output is fully
// determined by the input list.
func RenderRepoFile(ranked []RankedMirror) string {
	var b strings.Builder

	b.WriteString("# Fast mirrors selected by dnfast fetch.\n")
	b.WriteString("# This file is overwritten on every run; do not edit by hand.\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "[%s]\n", RepoID)
	b.WriteString("name=Fedora $releasever - dnfast fast mirrors\n")

	for i, m := range ranked {
		base := strings.TrimRight(m.Candidate.URL, "/")
		url := base + "/releases/$releasever/Everything/$basearch/os/"
		if i == 0 {
			fmt.Fprintf(&b, "baseurl=%s\n", url)
		} else {
			fmt.Fprintf(&b, "        %s\n", url)
		}
	}

	b.WriteString("enabled=1\n")
	b.WriteString("metadata_expire=6h\n")
	b.WriteString("repo_gpgcheck=0\n")
	b.WriteString("type=rpm\n")
	b.WriteString("gpgcheck=1\n")
	fmt.Fprintf(&b, "gpgkey=%s\n", fedoraGPGKeyURL)
	b.WriteString("skip_if_unavailable=False\n")

	return b.String()
}

// WriteRepoFile atomically replaces the repo file at path with the rendered
// ranked list: the content is written to a temp file in the same directory
// and renamed over the target. On any failure the previous file is left
// untouched and a PersistError is returned.
func WriteRepoFile(fs afero.Fs, path string, ranked []RankedMirror) error {
	content := RenderRepoFile(ranked)
	dir := filepath.Dir(path)

	tmp, err := afero.TempFile(fs, dir, ".dnfast-repo-*")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
		return &PersistError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName)
		return &PersistError{Path: path, Err: err}
	}

	if err := fs.Rename(tmpName, path); err != nil {
		_ = fs.Remove(tmpName)
		return &PersistError{Path: path, Err: err}
	}

	return nil
}
