package report

import (
	"fmt"
	"io"
	"strings"
)

// RenderMarkdown writes the report as a markdown document.
func RenderMarkdown(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Schema Comparison: %s\n\n", r.Metadata.MigrationName)
	fmt.Fprintf(&b, "- **Generated:** %s\n", r.Metadata.GeneratedAt)
	fmt.Fprintf(&b, "- **Engine:** %s\n\n", r.Metadata.Engine)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Tables compared | %d |\n", r.Summary.TablesCompared)
	fmt.Fprintf(&b, "| Differences found | %d |\n", r.Summary.DifferencesFound)
	fmt.Fprintf(&b, "| Missing tables | %d |\n", r.Summary.MissingTableCount)
	fmt.Fprintf(&b, "| Extra tables | %d |\n", r.Summary.ExtraTableCount)
	fmt.Fprintf(&b, "| Modified tables | %d |\n\n", r.Summary.ModifiedTableCount)

	if len(r.Diff.MissingTables) > 0 {
		b.WriteString("## Missing Tables (source only)\n\n")
		for _, t := range r.Diff.MissingTables {
			fmt.Fprintf(&b, "- `%s` (%d columns)\n", t.FullName(), len(t.Columns))
		}
		b.WriteString("\n")
	}

	if len(r.Diff.ExtraTables) > 0 {
		b.WriteString("## Extra Tables (target only)\n\n")
		for _, t := range r.Diff.ExtraTables {
			fmt.Fprintf(&b, "- `%s` (%d columns)\n", t.FullName(), len(t.Columns))
		}
		b.WriteString("\n")
	}

	if len(r.Diff.ModifiedTables) > 0 {
		b.WriteString("## Modified Tables\n\n")
		for _, td := range r.Diff.ModifiedTables {
			fmt.Fprintf(&b, "### %s\n\n", td.TableName)
			for _, col := range td.MissingColumns {
				fmt.Fprintf(&b, "- Missing column `%s` (%s)\n", col.Name, col.DataType)
			}
			for _, col := range td.ExtraColumns {
				fmt.Fprintf(&b, "- Extra column `%s` (%s)\n", col.Name, col.DataType)
			}
			for _, mod := range td.ModifiedColumns {
				fmt.Fprintf(&b, "- Modified column `%s`:\n", mod.Source.Name)
				for _, d := range mod.Differences {
					fmt.Fprintf(&b, "  - %s\n", d)
				}
			}
			for _, con := range td.MissingConstraints {
				fmt.Fprintf(&b, "- Missing constraint `%s` (%s)\n", con.Name, con.Type)
			}
			for _, con := range td.ExtraConstraints {
				fmt.Fprintf(&b, "- Extra constraint `%s` (%s)\n", con.Name, con.Type)
			}
			for _, mod := range td.ModifiedConstraints {
				fmt.Fprintf(&b, "- Modified constraint `%s`:\n", mod.Source.Name)
				for _, d := range mod.Differences {
					fmt.Fprintf(&b, "  - %s\n", d)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(r.Diff.MissingIndexes) > 0 || len(r.Diff.ExtraIndexes) > 0 || len(r.Diff.ModifiedIndexes) > 0 {
		b.WriteString("## Indexes\n\n")
		for _, idx := range r.Diff.MissingIndexes {
			fmt.Fprintf(&b, "- Missing index `%s` on `%s`\n", idx.Name, idx.TableName)
		}
		for _, idx := range r.Diff.ExtraIndexes {
			fmt.Fprintf(&b, "- Extra index `%s` on `%s`\n", idx.Name, idx.TableName)
		}
		for _, mod := range r.Diff.ModifiedIndexes {
			fmt.Fprintf(&b, "- Modified index `%s`:\n", mod.Source.Name)
			for _, d := range mod.Differences {
				fmt.Fprintf(&b, "  - %s\n", d)
			}
		}
		b.WriteString("\n")
	}

	if r.Summary.DifferencesFound == 0 &&
		len(r.Diff.MissingIndexes) == 0 && len(r.Diff.ExtraIndexes) == 0 && len(r.Diff.ModifiedIndexes) == 0 {
		b.WriteString("No differences found.\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write markdown report: %w", err)
	}
	return nil
}
