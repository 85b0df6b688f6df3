package lsp_server

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
)

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

var isSnapshotDirInited = false
var snapshotDirPath = ""

// snapshotDir returns (creating if needed) the directory holding the
// last-known text of every open document, keyed by URI hash. readSnapshot
// reads one back; the server does not reload snapshots on startup.
func snapshotDir() string {
	if isSnapshotDirInited {
		return snapshotDirPath
	}

	path := filepath.Join(os.TempDir(), "angel-lsp", "snapshots")
	if err := os.MkdirAll(path, 0700); err == nil {
		isSnapshotDirInited = true
	}

	snapshotDirPath = path
	return path
}

func snapshotPath(documentURI string) string {
	return filepath.Join(snapshotDir(), fmt.Sprintf("%d.as", hash(documentURI)))
}

// writeSnapshot persists a document's full text, overwriting any prior
// snapshot for the same URI.
func writeSnapshot(documentURI string, text string) error {
	return os.WriteFile(snapshotPath(documentURI), []byte(text), 0600)
}

// readSnapshot loads a previously written snapshot, if any.
func readSnapshot(documentURI string) (string, error) {
	data, err := os.ReadFile(snapshotPath(documentURI))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func removeSnapshot(documentURI string) error {
	return os.Remove(snapshotPath(documentURI))
}
