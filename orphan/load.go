package orphan

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/phil-mansfield/gosam/comm"
)

// Load reads the aux file at path on rank 0 of c, broadcasts it to every
// other rank in messages of at most chunk bytes and parses it. Every rank of
// c must call Load. log may be nil.
func Load(
	ctx context.Context, c comm.Comm, path string, chunk int, log *zap.Logger,
) (*Aux, error) {
	if log == nil { log = zap.NewNop() }
	log = log.With(zap.Int("rank", c.Rank()))
	root := c.Rank() == 0

	var buf []byte
	if root {
		log.Info("reading aux data", zap.String("path", path))
		var err error
		buf, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Can't open aux file '%s': %w", path, err)
		}
		log.Info("broadcasting aux data",
			zap.Int("bytes", len(buf)), zap.Int("chunk", chunk),
			zap.Int("ranks", c.Size()),
		)
	}

	if err := comm.BcastLarge(ctx, c, &buf, 0, chunk); err != nil {
		return nil, err
	}
	if root { log.Info("done broadcasting aux data") }

	a, err := Parse(buf)
	if err != nil {
		return nil, fmt.Errorf("Aux file '%s' is corrupt: %w", path, err)
	}
	log.Debug("parsed aux data",
		zap.Int32("halos", a.NtotHalos), zap.Int32("ids", a.TotIds),
		zap.Int32("trees", a.Ntrees), zap.Int32("snapshots", a.TotSnaps),
	)
	return a, nil
}
