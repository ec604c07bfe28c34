package discovery

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/afero"

	"suborbit/models"
)

var auditHeader = []string{
	"title", "year", "tmdb_id", "imdb_id", "original_language",
	"genres", "tmdb_rating", "imdb_rating", "rt_score", "vote_count",
}

// AuditWriter appends one CSV row per accepted commit. Rows are written only
// after a successful add, in commit order. Write failures are logged and
// swallowed; a broken audit file never stalls the pipeline.
type AuditWriter struct {
	fs   afero.Fs
	path string
}

// NewAuditWriter creates an audit writer over the given filesystem and path.
func NewAuditWriter(fs afero.Fs, path string) *AuditWriter {
	return &AuditWriter{fs: fs, path: path}
}

// Append writes the accepted movie's projection to the audit file, adding
// the header when the file is new.
func (w *AuditWriter) Append(m *models.Movie) {
	exists, err := afero.Exists(w.fs, w.path)
	if err != nil {
		log.Printf("[audit] stat %s: %v", w.path, err)
		return
	}
	f, err := w.fs.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[audit] open %s: %v", w.path, err)
		return
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if !exists {
		if err := cw.Write(auditHeader); err != nil {
			log.Printf("[audit] write header: %v", err)
			return
		}
	}
	row := []string{
		m.Title,
		fmt.Sprintf("%d", m.Year),
		fmt.Sprintf("%d", m.TMDBID),
		m.IMDBID,
		m.OriginalLanguage,
		strings.Join(m.Genres, ","),
		fmt.Sprintf("%.1f", m.TMDBRating),
		formatFloat(m.IMDBRating),
		formatInt(m.RTScore),
		fmt.Sprintf("%d", m.VoteCount),
	}
	if err := cw.Write(row); err != nil {
		log.Printf("[audit] write row: %v", err)
		return
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("[audit] flush: %v", err)
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *f)
}

func formatInt(i *int) string {
	if i == nil {
		return ""
	}
	return fmt.Sprintf("%d", *i)
}
