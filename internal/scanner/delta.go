package scanner

// LastState is the subset of a file's previously-indexed state needed to
// decide whether it changed: content hash plus the mtime that hash was
// computed against.
type LastState struct {
	ContentHash string
	ModTime     int64 // unix nanos
}

// Delta classifies the current scan against the last-indexed state.
type Delta struct {
	Added    []FileInfo
	Modified []FileInfo
	Removed  []string
}

// ComputeDelta compares the current file list against last, re-hashing only
// files whose mtime changed (spec.md §4.2: "mtime is used only to choose
// which files to digest when the optimization is available"). hashFn is
// injected so callers control how content hashing happens (and tests can
// stub it).
func ComputeDelta(current []FileInfo, last map[string]LastState, hashFn func(absPath string) (string, error)) (Delta, map[string]string, error) {
	var delta Delta
	hashes := make(map[string]string, len(current))
	seen := make(map[string]bool, len(current))

	for _, f := range current {
		seen[f.Path] = true
		prev, existed := last[f.Path]

		if existed && prev.ModTime == f.ModTime.UnixNano() {
			hashes[f.Path] = prev.ContentHash
			continue
		}

		h, err := hashFn(f.AbsPath)
		if err != nil {
			return Delta{}, nil, err
		}
		hashes[f.Path] = h

		switch {
		case !existed:
			delta.Added = append(delta.Added, f)
		case prev.ContentHash != h:
			delta.Modified = append(delta.Modified, f)
		}
	}

	for path := range last {
		if !seen[path] {
			delta.Removed = append(delta.Removed, path)
		}
	}

	return delta, hashes, nil
}
