package cmd

import (
	"fmt"
	"strconv"
	"time"

	"performer-tag-sync/core/reconcile"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// renderResult renders one row per kind and a total row.
func renderResult(result *reconcile.RunResult) string {
	headers := []string{"Kind", "Scanned", "Updated", "Tags Added", "Tags Removed", "Batches", "Duration"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	var total reconcile.KindResult
	rows := make([][]string, 0, len(result.Kinds)+1)
	for _, kr := range result.Kinds {
		rows = append(rows, kindRow(kr.Kind, kr))
		total.Scanned += kr.Scanned
		total.Updated += kr.Updated
		total.TagsInserted += kr.TagsInserted
		total.TagsDeleted += kr.TagsDeleted
		total.Batches += kr.Batches
	}
	total.Duration = result.FinishedAt.Sub(result.StartedAt)
	rows = append(rows, kindRow("total", total))

	return renderTable(headers, rows, aligns)
}

func kindRow(name string, kr reconcile.KindResult) []string {
	return []string{
		name,
		strconv.Itoa(kr.Scanned),
		strconv.Itoa(kr.Updated),
		strconv.Itoa(kr.TagsInserted),
		strconv.Itoa(kr.TagsDeleted),
		strconv.Itoa(kr.Batches),
		kr.Duration.Round(time.Millisecond).String(),
	}
}

// resultHeadline summarizes a run in one line.
func resultHeadline(result *reconcile.RunResult) string {
	verb := "updated"
	if result.DryRun {
		verb = "would update"
	}
	return fmt.Sprintf("Sync %s (%s mode): %s %d entities across %d kinds",
		result.RunID, result.Policy, verb, result.TotalUpdated(), len(result.Kinds))
}
