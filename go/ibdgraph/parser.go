package ibdgraph

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"go.skia.org/infra/go/skerr"
	"go.skia.org/infra/go/util"

	"github.com/hoytak/hashreduce/go/marker"
)

// The F1 text format describes a stream of graphs. Each line is one allele
// of an edge:
//
//	<edge> <node0> <node1> <change-count> [<pos> <node>]...
//
// node0 connects from marker 0 to 1, node1 from 1 to the first change
// position, and each change hands the connection to the named node from its
// position on; the final node runs to +infinity. An edge's two alleles
// appear on consecutive lines. Graphs are delimited implicitly: a repeated
// edge name starts the next graph. Blank lines and #-comments are skipped.

var (
	f1LineRe   = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s+(\w+)\s+(\d+)`)
	f1ChangeRe = regexp.MustCompile(`^\s*(\d+)\s+(\w+)\s*`)
)

type f1Connection struct {
	edge    string
	base    string
	changes []f1Shift
}

type f1Shift struct {
	node string
	pos  marker.Marker
}

// ParseF1String parses F1-format text into the graphs it describes.
func ParseF1String(s string) ([]*Graph, error) {
	var conns []f1Connection
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := parseF1Line(line)
		if err != nil {
			return nil, skerr.Wrapf(err, "line %d", i+1)
		}
		conns = append(conns, c)
	}
	if len(conns)%2 != 0 {
		return nil, skerr.Fmt("odd number of connection lines: %d", len(conns))
	}

	// Pair the two alleles of each edge.
	type edgeGroup struct {
		edge  string
		lines []f1Connection
	}
	var edges []edgeGroup
	for i := 0; i < len(conns); i += 2 {
		if conns[i].edge != conns[i+1].edge {
			return nil, skerr.Fmt("edge lines %d and %d do not match (%q != %q)", i, i+1, conns[i].edge, conns[i+1].edge)
		}
		edges = append(edges, edgeGroup{edge: conns[i].edge, lines: []f1Connection{conns[i], conns[i+1]}})
	}

	// A graph spans a maximal run of distinct edge names.
	var graphs []*Graph
	pos := 0
	for pos < len(edges) {
		seen := map[string]bool{}
		n := 0
		for pos+n < len(edges) && !seen[edges[pos+n].edge] {
			seen[edges[pos+n].edge] = true
			n++
		}
		g := NewGraph()
		for _, eg := range edges[pos : pos+n] {
			for _, c := range eg.lines {
				addConnection(g, c)
			}
		}
		graphs = append(graphs, g)
		pos += n
	}
	return graphs, nil
}

// ParseF1File parses an F1-format file.
func ParseF1File(path string) ([]*Graph, error) {
	var graphs []*Graph
	err := util.WithReadFile(path, func(r io.Reader) error {
		b, err := io.ReadAll(r)
		if err != nil {
			return skerr.Wrap(err)
		}
		graphs, err = ParseF1String(string(b))
		return err
	})
	if err != nil {
		return nil, skerr.Wrapf(err, "parsing %s", path)
	}
	return graphs, nil
}

func parseF1Line(line string) (f1Connection, error) {
	m := f1LineRe.FindStringSubmatch(line)
	if m == nil {
		return f1Connection{}, skerr.Fmt("unrecognized connection line %q", line)
	}
	c := f1Connection{
		edge:    m[1],
		base:    m[2],
		changes: []f1Shift{{node: m[3], pos: 1}},
	}
	count, err := strconv.Atoi(m[4])
	if err != nil {
		return f1Connection{}, skerr.Wrap(err)
	}
	rest := line[len(m[0]):]
	for i := 0; i < count; i++ {
		cm := f1ChangeRe.FindStringSubmatch(rest)
		if cm == nil {
			return f1Connection{}, skerr.Fmt("expected %d changes on %q, found %d", count, line, i)
		}
		pos, err := strconv.ParseInt(cm[1], 10, 64)
		if err != nil {
			return f1Connection{}, skerr.Wrap(err)
		}
		c.changes = append(c.changes, f1Shift{node: cm[2], pos: marker.Marker(pos)})
		rest = rest[len(cm[0]):]
	}
	return c, nil
}

func addConnection(g *Graph, c f1Connection) {
	e := g.EdgeByName(c.edge)
	cur := g.NodeByName(c.base)
	start := marker.Marker(0)
	for _, ch := range c.changes {
		g.Connect(e, cur, start, ch.pos)
		start = ch.pos
		cur = g.NodeByName(ch.node)
	}
	g.Connect(e, cur, start, marker.PlusInfinity)
}
