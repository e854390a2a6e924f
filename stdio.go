// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package mdd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/exp/slices"
)

// humanSize returns a human readable version of the memory used by n objects
// of the given size.
func humanSize(n int, size uintptr) string {
	b := float64(n) * float64(size)
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", b/(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", b/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", b/(1<<10))
	}
	return fmt.Sprintf("%d B", int(b))
}

// Print returns a one-line description of node n.
func (t *Table) Print(n Node) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n == nil {
		return "Error (nil node)"
	}
	if t.error != nil {
		return fmt.Sprintf("node %d: error %s", *n, t.error)
	}
	switch {
	case *n == 0:
		return "Empty"
	case *n == 1:
		return "One"
	case *n < 0:
		return "Error"
	case *n >= len(t.nodes):
		return fmt.Sprintf("Error (%d not a valid index)", *n)
	case t.isfree(*n):
		return fmt.Sprintf("Error (node %d undefined)", *n)
	}
	return fmt.Sprintf("%d[%d] %s", *n, t.nodes[*n].level, edgestring(t.nodes[*n].edges))
}

func edgestring(edges []edge) string {
	res := "{"
	for k, e := range edges {
		if k > 0 {
			res += ", "
		}
		res += fmt.Sprintf("%d: %d", e.value, e.child)
	}
	return res + "}"
}

// Fprint outputs a textual representation of the diagram with root n, one
// node per line.
func (t *Table) Fprint(w io.Writer, n Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.error != nil {
		fmt.Fprintf(w, "ERROR: %s\n", t.error)
		return t.error
	}
	if t.checkptr(n) != nil {
		return t.error
	}
	if *n == 0 {
		fmt.Fprintln(w, "Empty")
		return nil
	}
	if *n == 1 {
		fmt.Fprintln(w, "One")
		return nil
	}
	fmt.Fprintf(w, "node: %d\n", *n)
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, k := range t.reachable(*n) {
		fmt.Fprintf(tw, "%d\t[%d]\t%s\n", k, t.nodes[k].level, edgestring(t.nodes[k].edges))
	}
	return tw.Flush()
}

// reachable returns the sorted list of non-terminal nodes reachable from n.
func (t *Table) reachable(n int) []int {
	t.markrec(n)
	var res []int
	for k := 2; k < len(t.nodes); k++ {
		if t.ismarked(k) && !t.isfree(k) {
			t.unmarknode(k)
			res = append(res, k)
		}
	}
	slices.Sort(res)
	return res
}

// ******************************************************************************************************

// PrintDot prints a graph-like description of the diagram with root n using
// the DOT format on the standard output. Nodes are labelled with the variables
// of order, when it is not nil.
func (t *Table) PrintDot(n Node, order *Order) error {
	return t.printDot(bufio.NewWriter(os.Stdout), n, order)
}

// FPrintDot writes the DOT description of the diagram with root n in the
// given file, or on the standard output if filename is "-".
func (t *Table) FPrintDot(filename string, n Node, order *Order) error {
	var out *os.File
	var err error
	if filename == "-" {
		out = os.Stdout
	} else {
		out, err = os.Create(filename)
		if err != nil {
			return err
		}
		defer out.Close()
	}
	return t.printDot(bufio.NewWriter(out), n, order)
}

// WriteDot writes the DOT description of the diagram with root n on w.
func (t *Table) WriteDot(w io.Writer, n Node, order *Order) error {
	return t.printDot(bufio.NewWriter(w), n, order)
}

// printDot returns a GraphViz DOT file for the diagram with root n. We do not
// draw the empty terminal, since no edge points to it.
func (t *Table) printDot(w *bufio.Writer, n Node, order *Order) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.error != nil {
		fmt.Fprintf(w, "ERROR: %s\n", t.error)
		w.Flush()
		return t.error
	}
	if t.checkptr(n) != nil {
		return t.error
	}
	fmt.Fprintln(w, "digraph G {")
	fmt.Fprintln(w, "1 [shape=box, label=\"1\", style=filled, height=0.3, width=0.3];")
	for _, v := range t.reachable(*n) {
		level := t.nodes[v].level
		name := fmt.Sprintf("%d", level)
		if order != nil && int(level) < order.Len() {
			name = fmt.Sprintf("%v", order.At(int(level)).ID)
		}
		fmt.Fprintf(w, "%d %s\n", v, dotlabel(v, name))
		for _, e := range t.nodes[v].edges {
			fmt.Fprintf(w, "%d -> %d [label=\"%d\"];\n", v, e.child, e.value)
		}
	}
	fmt.Fprintln(w, "}")
	return w.Flush()
}

func dotlabel(a int, name string) string {
	return fmt.Sprintf(`[label=<
	<FONT POINT-SIZE="20">%s</FONT>
	<FONT POINT-SIZE="10">[%d]</FONT>
>];`, name, a)
}
