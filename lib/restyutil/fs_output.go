// Package restyutil dumps the http traffic of a resty client to disk, it is
// used to inspect pages whose markup no longer matches the extractors.
package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type FilesystemOutput struct {
	directory string
	idcounter *atomic.Uint64
}

// NewFilesystemOutput creates (emptying it first) the directory messages are
// written to.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	err := os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir, idcounter: &atomic.Uint64{}}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}

// InstrumentClient writes every response client receives to output as
// `<n>.http`, n counting up from 1.
func InstrumentClient(client *resty.Client, output FilesystemOutput) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := output.idcounter.Add(1)
		output.Write(fmt.Sprintf("%d.http", id), formatHttpMessage(res))
		return nil
	})
}
