// ibddedup parses F1-format graph files and reports which of the described
// graphs are structurally identical, either across the whole marker axis or
// at a single marker point.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.skia.org/infra/go/sklog"

	"github.com/hoytak/hashreduce/go/ibdgraph"
	"github.com/hoytak/hashreduce/go/marker"
)

var atMarker string

func main() {
	cmd := &cobra.Command{
		Use:   "ibddedup FILE...",
		Short: "Report duplicate graph structures in F1 graph files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,

		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&atMarker, "at-marker", "", "Compare graphs at this marker point instead of across all markers.")
	if err := cmd.Execute(); err != nil {
		sklog.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var graphs []*ibdgraph.Graph
	for _, path := range args {
		gl, err := ibdgraph.ParseF1File(path)
		if err != nil {
			return err
		}
		sklog.Infof("Loaded %d graphs from %s.", len(gl), path)
		graphs = append(graphs, gl...)
	}

	counts := map[string][]int{}
	for i, g := range graphs {
		var h string
		if atMarker == "" {
			h = g.ViewHash().String()
		} else {
			m, err := strconv.ParseInt(atMarker, 10, 64)
			if err != nil {
				return err
			}
			h = g.HashAtMarker(marker.Marker(m)).String()
		}
		counts[h] = append(counts[h], i+1)
	}

	hashes := make([]string, 0, len(counts))
	for h := range counts {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool {
		return len(counts[hashes[i]]) > len(counts[hashes[j]])
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Count", "Hash", "Graphs"})
	for _, h := range hashes {
		idx := counts[h]
		members := ""
		for i, n := range idx {
			if i > 0 {
				members += ", "
			}
			members += fmt.Sprintf("%d", n)
		}
		table.Append([]string{strconv.Itoa(len(idx)), h[:8], members})
	}
	table.Render()
	return nil
}
