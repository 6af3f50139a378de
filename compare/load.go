package compare

import (
	"encoding/json"
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/kbukum/abcompare/errors"
)

// Load reads a persisted comparison result.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("comparison result", path)
		}
		return nil, errors.Internal(err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.InvalidInput("path", "not a comparison result: "+err.Error()).WithCause(err)
	}
	return &r, nil
}
