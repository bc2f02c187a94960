package minutes

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileStampLayout appears in output file names
const fileStampLayout = "2006-01-02_1504"

// RenderMarkdown prefixes summary with the metadata block
func RenderMarkdown(meta Metadata, summary string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Duration**: %.1f min  \n", meta.DurationMinutes)
	fmt.Fprintf(&b, "**Total Words**: %d  \n", meta.TotalWords)
	fmt.Fprintf(&b, "**Generated on**: %s", meta.Timestamp)
	b.WriteString("\n\n")
	b.WriteString(summary)
	return b.String()
}

// OutputPaths returns the English and Bangla file paths for inputPath
func OutputPaths(dir, inputPath string, now time.Time) (en, bn string) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	prefix := filepath.Join(dir, fmt.Sprintf("minutes_%s_%s", base, now.Format(fileStampLayout)))
	return prefix + "_en.md", prefix + "_bn.md"
}

// WriteFiles writes both summaries of result into dir, creating it if needed
func WriteFiles(dir, inputPath string, now time.Time, result *Result) (en, bn string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	en, bn = OutputPaths(dir, inputPath, now)
	if err := os.WriteFile(en, []byte(RenderMarkdown(result.Metadata, result.SummaryEN)), 0o644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", en, err)
	}
	if err := os.WriteFile(bn, []byte(RenderMarkdown(result.Metadata, result.SummaryBN)), 0o644); err != nil {
		os.Remove(en)
		return "", "", fmt.Errorf("failed to write %s: %w", bn, err)
	}
	return en, bn, nil
}
