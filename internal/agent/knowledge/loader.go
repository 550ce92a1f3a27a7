package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cloudwego/eino/schema"
	"golang.org/x/sync/errgroup"

	logx "github.com/chative/supportdesk/pkg/logger"
)

// MetaSource and MetaSection are the document metadata keys set by LoadDir.
const (
	MetaSource  = "source"
	MetaSection = "section"
)

// LoadDir reads every *.md file in dir and splits it into documents.
// A missing directory yields no documents and no error so that a fresh
// deployment still starts with an empty index.
func LoadDir(ctx context.Context, dir string, splitter Splitter) ([]*schema.Document, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logx.Warn().Str("dir", dir).Msg("knowledge directory missing, starting with empty index")
		return nil, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("listing knowledge docs: %w", err)
	}
	sort.Strings(files)

	perFile := make([][]*schema.Document, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			name := filepath.Base(path)
			chunks := splitter.Split(name, src)
			docs := make([]*schema.Document, 0, len(chunks))
			for _, c := range chunks {
				docs = append(docs, &schema.Document{
					ID:      fmt.Sprintf("%s#%d", name, c.Index),
					Content: c.Text,
					MetaData: map[string]any{
						MetaSource:  c.Source,
						MetaSection: c.Section,
					},
				})
			}
			perFile[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*schema.Document
	for _, docs := range perFile {
		out = append(out, docs...)
	}
	logx.Info().Str("dir", dir).Int("files", len(files)).Int("chunks", len(out)).Msg("knowledge docs loaded")
	return out, nil
}
