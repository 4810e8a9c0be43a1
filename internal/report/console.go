package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	headerColor   = color.New(color.FgCyan, color.Bold).SprintfFunc()
	missingColor  = color.New(color.FgRed).SprintfFunc()
	extraColor    = color.New(color.FgGreen).SprintfFunc()
	modifiedColor = color.New(color.FgYellow).SprintfFunc()
)

// RenderConsole writes the human-readable summary with per-table trees.
func RenderConsole(w io.Writer, r *Report) error {
	fmt.Fprintln(w, headerColor("Schema comparison: %s (%s)", r.Metadata.MigrationName, r.Metadata.Engine))
	fmt.Fprintf(w, "Tables compared: %d, differences found: %d\n\n",
		r.Summary.TablesCompared, r.Summary.DifferencesFound)

	if r.Summary.DifferencesFound == 0 &&
		len(r.Diff.MissingIndexes) == 0 && len(r.Diff.ExtraIndexes) == 0 && len(r.Diff.ModifiedIndexes) == 0 {
		fmt.Fprintln(w, "No schema differences found.")
		return nil
	}

	for _, t := range r.Diff.MissingTables {
		fmt.Fprintln(w, missingColor("- table %s (source only)", t.FullName()))
	}
	for _, t := range r.Diff.ExtraTables {
		fmt.Fprintln(w, extraColor("+ table %s (target only)", t.FullName()))
	}

	for _, td := range r.Diff.ModifiedTables {
		fmt.Fprintln(w, modifiedColor("~ table %s", td.TableName))
		for _, col := range td.MissingColumns {
			fmt.Fprintf(w, "    %s\n", missingColor("- column %s %s", col.Name, col.DataType))
		}
		for _, col := range td.ExtraColumns {
			fmt.Fprintf(w, "    %s\n", extraColor("+ column %s %s", col.Name, col.DataType))
		}
		for _, mod := range td.ModifiedColumns {
			fmt.Fprintf(w, "    %s\n", modifiedColor("~ column %s", mod.Source.Name))
			for _, d := range mod.Differences {
				fmt.Fprintf(w, "        %s\n", d)
			}
		}
		for _, con := range td.MissingConstraints {
			fmt.Fprintf(w, "    %s\n", missingColor("- constraint %s (%s)", con.Name, con.Type))
		}
		for _, con := range td.ExtraConstraints {
			fmt.Fprintf(w, "    %s\n", extraColor("+ constraint %s (%s)", con.Name, con.Type))
		}
		for _, mod := range td.ModifiedConstraints {
			fmt.Fprintf(w, "    %s\n", modifiedColor("~ constraint %s", mod.Source.Name))
			for _, d := range mod.Differences {
				fmt.Fprintf(w, "        %s\n", d)
			}
		}
	}

	for _, idx := range r.Diff.MissingIndexes {
		fmt.Fprintln(w, missingColor("- index %s on %s (source only)", idx.Name, idx.TableName))
	}
	for _, idx := range r.Diff.ExtraIndexes {
		fmt.Fprintln(w, extraColor("+ index %s on %s (target only)", idx.Name, idx.TableName))
	}
	for _, mod := range r.Diff.ModifiedIndexes {
		fmt.Fprintln(w, modifiedColor("~ index %s", mod.Source.Name))
		for _, d := range mod.Differences {
			fmt.Fprintf(w, "    %s\n", d)
		}
	}

	return nil
}
