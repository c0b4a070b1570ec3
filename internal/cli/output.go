package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mesh-intelligence/spsync/internal/persist"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatTOML = "toml"
)

func validFormat(f string) bool {
	switch f {
	case formatText, formatJSON, formatTOML:
		return true
	}
	return false
}

// snapshot is the document written by show and commit for the json and
// toml formats.
type snapshot struct {
	Roots []persist.Node `json:"roots" toml:"roots"`
}

// render writes v in format. The text format is produced by text.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatTOML:
		return toml.NewEncoder(w).Encode(v)
	default:
		return text(w)
	}
}

// writeTree prints nodes as an indented tree, one object per line with its
// properties sorted by name.
func writeTree(w io.Writer, nodes []persist.Node) error {
	var b strings.Builder
	for _, n := range nodes {
		appendNode(&b, n, 0)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func appendNode(b *strings.Builder, n persist.Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Type)
	b.WriteByte(' ')
	b.WriteString(n.ID)
	for _, k := range slices.Sorted(maps.Keys(n.Properties)) {
		switch v := n.Properties[k].(type) {
		case string:
			fmt.Fprintf(b, " %s=%q", k, v)
		default:
			fmt.Fprintf(b, " %s=%v", k, v)
		}
	}
	b.WriteByte('\n')
	for _, c := range n.Children {
		appendNode(b, c, depth+1)
	}
}
