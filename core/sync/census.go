package sync

import (
	"context"
	"fmt"
	"strings"

	"datasync/core/gateway"
)

// takeLocalCensus computes key quality counts over the loaded snapshot.
func takeLocalCensus(features []Feature) TableCensus {
	census := TableCensus{FeatureCount: int64(len(features))}

	seen := make(map[string]int64, len(features))
	for _, f := range features {
		key := strings.TrimSpace(f.Key)
		if key == "" {
			census.BlankKeyCount++
			continue
		}
		seen[key]++
	}
	for _, n := range seen {
		if n > 1 {
			census.DuplicateKeyCount += n
		}
	}
	return census
}

// takeRemoteCensus computes key quality counts over the remote table.
func takeRemoteCensus(ctx context.Context, gw gateway.Gateway, cfg Config) (TableCensus, error) {
	remote := cfg.QualifiedRemote()

	if !gw.TableExists(ctx, remote) {
		return TableCensus{}, newError(KindLoad, nil, "remote table %s does not exist", remote)
	}

	count := gw.RowCount(ctx, remote)
	if count < 0 {
		return TableCensus{}, newError(KindLoad, nil, "could not determine row count of %s", remote)
	}

	blank, duplicate, err := gw.KeyCensus(ctx, remote, cfg.KeyColumn)
	if err != nil {
		return TableCensus{}, newError(KindLoad, err, "key census of %s failed", remote)
	}

	return TableCensus{
		FeatureCount:      count,
		BlankKeyCount:     blank,
		DuplicateKeyCount: duplicate,
	}, nil
}

// censusWarnings renders user-facing warnings for key quality findings.
// Warnings never block a compare; only hard load errors do.
func censusWarnings(census *Census) []string {
	var warnings []string
	for _, side := range []struct {
		name string
		c    TableCensus
	}{
		{"local", census.Local},
		{"remote", census.Remote},
	} {
		if side.c.BlankKeyCount > 0 {
			warnings = append(warnings, fmt.Sprintf("%s table has %d features with a blank key", side.name, side.c.BlankKeyCount))
		}
		if side.c.DuplicateKeyCount > 0 {
			warnings = append(warnings, fmt.Sprintf("%s table has %d features with a duplicated key", side.name, side.c.DuplicateKeyCount))
		}
	}
	return warnings
}
