package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "replicatorctl: "+err.Error())
	os.Exit(1)
}

func row(cells ...string) string {
	return strings.Join(cells, "\t")
}
