package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"

	"github.com/gridwatch/outage-notifier/internal/common"
	"github.com/gridwatch/outage-notifier/internal/domain/entity"
)

const categoryFileError = "snapshot_file"

// FileStore keeps the snapshot in a local JSON document.
type FileStore struct {
	path  string
	clock clockwork.Clock
}

func NewFileStore(path string, clock clockwork.Clock) FileStore {
	return FileStore{
		path:  path,
		clock: clock,
	}
}

func (s FileStore) Load(_ context.Context) (entity.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return entity.Snapshot{}, nil
		}

		return nil, common.NewErrProcessingError(err, categoryFileError, nil, "failed to read %s", s.path)
	}

	return Decode(data)
}

// Save writes the document next to the target and renames it, so readers never see a partial file.
func (s FileStore) Save(_ context.Context, snapshot entity.Snapshot) error {
	data, err := Encode(snapshot, s.clock.Now())
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)

	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return common.NewErrProcessingError(err, categoryFileError, nil, "failed to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return common.NewErrProcessingError(err, categoryFileError, nil, "failed to create temporary file in %s", dir)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck

	_, err = tmp.Write(append(data, '\n'))
	if err == nil {
		err = tmp.Sync()
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		return common.NewErrProcessingError(err, categoryFileError, nil, "failed to write %s", tmp.Name())
	}

	err = os.Rename(tmp.Name(), s.path)
	if err != nil {
		return common.NewErrProcessingError(err, categoryFileError, nil, "failed to replace %s", s.path)
	}

	return nil
}
