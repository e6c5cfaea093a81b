package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/kailas-cloud/vidclass/internal/domain"
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printJSON(v any, pretty bool) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// inputText builds the classifier input from -title/-description or, when
// both are empty, from the positional arguments.
func inputText(title, description string, args []string) string {
	if title != "" || description != "" {
		return domain.VideoText(title, description)
	}
	return strings.Join(args, " ")
}
