// Package feed loads platform export files into raw records for the
// reconciliation pipeline. Each platform fetcher writes one JSON file per
// run; feed reads them back without interpreting field contents.
package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

// Batch is the parsed contents of one platform export file.
type Batch struct {
	Platform model.Platform
	Path     string
	Records  []model.RawRecord
}

// envelope is the wrapped export shape some fetchers produce. The bare
// array shape is also accepted.
type envelope struct {
	Platform      model.Platform    `json:"platform,omitempty"`
	FetchedAt     time.Time         `json:"fetched_at,omitempty"`
	Opportunities []model.RawRecord `json:"opportunities"`
}

// LoadDir reads every .json file in dir, one batch per file. Files are
// processed in name order so runs are reproducible.
func LoadDir(ctx context.Context, dir string) ([]Batch, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, eris.Wrapf(err, "feed: glob %s", dir)
	}
	if len(paths) == 0 {
		return nil, eris.Errorf("feed: no export files in %s", dir)
	}
	sort.Strings(paths)

	log := zap.L().With(zap.String("component", "feed"))
	batches := make([]Batch, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "feed: load cancelled")
		}
		batch, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		log.Info("loaded export file",
			zap.String("path", path),
			zap.String("platform", string(batch.Platform)),
			zap.Int("records", len(batch.Records)))
		batches = append(batches, *batch)
	}
	return batches, nil
}

// LoadFile reads one export file. The platform comes from each record's
// source_platform field; the filename stem is the fallback for records
// that omit it.
func LoadFile(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: open %s", path)
	}
	defer f.Close()

	batch := &Batch{
		Path:     path,
		Platform: platformFromFilename(path),
	}

	br := bufio.NewReader(f)
	first, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return batch, nil
		}
		return nil, eris.Wrapf(err, "feed: read %s", path)
	}

	var fetchedAt time.Time
	switch first {
	case '[':
		batch.Records, err = decodeRecordArray(br)
		if err != nil {
			return nil, eris.Wrapf(err, "feed: parse %s", path)
		}
	case '{':
		var env envelope
		if err := json.NewDecoder(br).Decode(&env); err != nil {
			return nil, eris.Wrapf(err, "feed: parse %s", path)
		}
		batch.Records = env.Opportunities
		if env.Platform != "" {
			batch.Platform = env.Platform
		}
		fetchedAt = env.FetchedAt
	default:
		return nil, eris.Errorf("feed: %s: expected '[' or '{', got %q", path, first)
	}

	for i := range batch.Records {
		rec := &batch.Records[i]
		if rec.Platform == "" {
			rec.Platform = batch.Platform
		}
		if rec.FetchedAt.IsZero() {
			rec.FetchedAt = fetchedAt
		}
	}
	return batch, nil
}

// decodeRecordArray streams a bare JSON array element by element, so a
// large export never needs to be held as one raw blob.
func decodeRecordArray(r io.Reader) ([]model.RawRecord, error) {
	decoder := json.NewDecoder(r)

	tok, err := decoder.Token()
	if err != nil {
		return nil, eris.Wrap(err, "read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, eris.Errorf("expected '[', got %v", tok)
	}

	var records []model.RawRecord
	for decoder.More() {
		var rec model.RawRecord
		if err := decoder.Decode(&rec); err != nil {
			return nil, eris.Wrapf(err, "decode record %d", len(records))
		}
		records = append(records, rec)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "read closing token")
	}
	return records, nil
}

// platformFromFilename maps an export filename stem like "cafe.json" or
// "zapplication-2025-09-01.json" to a platform.
func platformFromFilename(path string) model.Platform {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.ToLower(stem)
	for _, p := range model.KnownPlatforms {
		if stem == string(p) || strings.HasPrefix(stem, string(p)+"-") || strings.HasPrefix(stem, string(p)+"_") {
			return p
		}
	}
	return ""
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			if err := br.UnreadByte(); err != nil {
				return 0, err
			}
			return b, nil
		}
	}
}
