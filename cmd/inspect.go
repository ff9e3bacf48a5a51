package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/KaramelBytes/churnguard-cli/internal/schema"
	"github.com/KaramelBytes/churnguard-cli/internal/table"
	"github.com/KaramelBytes/churnguard-cli/internal/utils"
)

var (
	inspectMode string
	inspectHTML string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.csv>...",
	Short: "List each file's headers and the role every column was resolved to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateInputs(args); err != nil {
			return err
		}
		mode, err := resolveMode(inspectMode)
		if err != nil {
			return err
		}
		headers, warnings := table.IndexHeaders(args, tableOptions())
		for _, w := range warnings {
			warnf(cmd.ErrOrStderr(), "%s", w)
		}
		m := schema.Resolve(headers, mode)
		md := renderInspect(args, headers, m)
		fmt.Fprint(cmd.OutOrStdout(), md)
		if inspectHTML != "" {
			if err := writeMarkdownHTML(inspectHTML, md); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote inspection to %s\n", inspectHTML)
		}

		var missing *schema.MissingRolesError
		if err := schema.Validate(m); errors.As(err, &missing) {
			warnf(cmd.ErrOrStderr(), "%v", err)
		}
		return nil
	},
}

// cellEscaper keeps header text from splitting a Markdown table cell.
var cellEscaper = strings.NewReplacer("|", `\|`)

// renderInspect formats the header listing as Markdown, like an analysis summary.
func renderInspect(paths []string, headers []table.HeaderSet, m schema.Mapping) string {
	byColumn := map[schema.ColumnRef][]string{}
	for _, r := range m.Roles() {
		byColumn[m[r]] = append(byColumn[m[r]], r.String())
	}
	var b strings.Builder
	for i, p := range paths {
		fmt.Fprintf(&b, "## File %d: %s\n\n", i, p)
		if len(headers[i]) == 0 {
			b.WriteString("(no readable header)\n\n")
			continue
		}
		b.WriteString("| Column | Role |\n|---|---|\n")
		for _, h := range headers[i] {
			roles := byColumn[schema.ColumnRef{Column: h, FileIndex: i}]
			fmt.Fprintf(&b, "| %s | %s |\n", cellEscaper.Replace(h), strings.Join(roles, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("## Roles\n\n")
	for _, r := range schema.AllRoles() {
		ref, ok := m[r]
		req := ""
		if r.Required() {
			req = " (required)"
		}
		if !ok {
			fmt.Fprintf(&b, "- %s%s: not found\n", r, req)
			continue
		}
		fmt.Fprintf(&b, "- %s%s: %s in file %d\n", r, req, ref.Column, ref.FileIndex)
	}
	return b.String()
}

// writeMarkdownHTML converts the Markdown listing to an HTML fragment file.
func writeMarkdownHTML(path, md string) error {
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write inspection: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectMode, "mode", "", "resolution mode: exclusive|independent (overrides config)")
	inspectCmd.Flags().StringVar(&inspectHTML, "html", "", "also write the listing as HTML to this file")
}
