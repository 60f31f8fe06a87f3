package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/neurlang/gopit/batch"
)

func renderSummary(sum batch.Summary, outputDir string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Run", "Processed", "Skipped", "Output"})
	tw.AppendRow(table.Row{sum.RunID, strconv.Itoa(sum.Processed), strconv.Itoa(sum.Skipped), outputDir})
	if len(sum.SkippedKeys) > 0 {
		tw.AppendFooter(table.Row{"skipped", strings.Join(sum.SkippedKeys, " "), "", ""})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
