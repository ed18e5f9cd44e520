// package formatter provides functions to export mood recommendations to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"

	"github.com/desertthunder/moody/internal/models"
	"github.com/desertthunder/moody/internal/shared"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Format names an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

const trackURL = "https://open.spotify.com/track/"

// ParseFormat accepts a format name or one of its common aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt", "plain":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (text, csv, markdown, json)", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// Export renders rec in format f.
func Export(rec *models.Recommendation, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(rec)
	case FormatMarkdown:
		return ExportToMarkdown(rec)
	case FormatJSON:
		return ExportToJSON(rec)
	case FormatText:
		return ExportToText(rec)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToCSV converts a Recommendation to CSV format with columns: Position, ID, Name, Artist, URI
func ExportToCSV(rec *models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Name", "Artist", "URI"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range rec.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Name,
			track.Artist,
			track.URI,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a Recommendation to Markdown with linked tracks
func ExportToMarkdown(rec *models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer
	mood := rec.Mood

	buf.WriteString(fmt.Sprintf("# Mood: %s\n\n", mood.Bucket))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(rec.Tracks)))
	buf.WriteString(fmt.Sprintf("**Target**: valence %.2f, energy %.2f, tempo %.0f BPM, danceability %.2f\n\n",
		mood.Valence, mood.Energy, mood.Tempo, mood.Danceability))

	if len(rec.Tracks) == 0 {
		buf.WriteString("_No tracks found. Listen to more music and try again._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("## Tracks\n\n")
	for i, track := range rec.Tracks {
		title := escapeMarkdown(track.Name)
		if track.ID != "" {
			title = fmt.Sprintf("[%s](%s%s)", title, trackURL, track.ID)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, escapeMarkdown(track.Artist), title))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a Recommendation to plain text format
func ExportToText(rec *models.Recommendation) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Mood: %s\n", rec.Mood.Bucket))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(rec.Tracks)))

	for i, track := range rec.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Name))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a Recommendation to indented JSON
func ExportToJSON(rec *models.Recommendation) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recommendation: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteExport writes rec to path on fsys in format f.
//
// Defaults to {bucket}_tracks.{ext} as the filename and returns the path written.
func WriteExport(fsys afero.Fs, rec *models.Recommendation, f Format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.%s", rec.Mood.Bucket, f.Extension())
	}

	data, err := Export(rec, f)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

var markdownEscaper = strings.NewReplacer(`[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
