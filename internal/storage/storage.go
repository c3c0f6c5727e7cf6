package storage

import (
	"io"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage persists uploaded source videos and resolves their on-disk paths
// for the analysis pipeline.
type Storage interface {
	SaveFile(file io.Reader, info FileInfo) (string, error)
	Path(filename string) (string, error)
	DeleteFile(filename string) error
}
