package testkit

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"jets/internal/jets"
	"jets/internal/trace"
)

// ParseTree builds a JETS trace from an indented outline, one record per
// line, two spaces per level:
//
//	1 clk=0 end=500 name=root
//	  2 clk=50
//	  3 clk=100 desc=b dur=20
//
// The first field is the id. Optional fields: clk (default 0), end or dur,
// name (default r<id>), desc (default name), kind (default node).
func ParseTree(outline string) (*jets.Trace, error) {
	var buf bytes.Buffer
	w := jets.NewWriter(&buf)
	if err := w.Header("test", trace.Value(`{}`)); err != nil {
		return nil, err
	}

	type open struct {
		depth int
		id    trace.ID
	}
	var stack []open
	type ending struct {
		id  trace.ID
		clk int64
	}
	var ends []ending

	for lineNo, line := range strings.Split(outline, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if indent%2 != 0 {
			return nil, fmt.Errorf("line %d: odd indentation", lineNo+1)
		}
		depth := indent / 2
		fields := strings.Fields(line)
		id, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", lineNo+1, err)
		}
		rec := jets.RecordLine{ID: trace.ID(id), Kind: "node", Name: "r" + fields[0]}
		var desc string
		var end, dur int64
		var haveEnd, haveDur bool
		for _, f := range fields[1:] {
			key, val, ok := strings.Cut(f, "=")
			if !ok {
				return nil, fmt.Errorf("line %d: bad field %q", lineNo+1, f)
			}
			switch key {
			case "clk", "end", "dur":
				n, err := strconv.ParseInt(val, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %s: %w", lineNo+1, key, err)
				}
				switch key {
				case "clk":
					rec.Clk = n
				case "end":
					end, haveEnd = n, true
				default:
					dur, haveDur = n, true
				}
			case "name":
				rec.Name = val
			case "desc":
				desc = val
			case "kind":
				rec.Kind = val
			default:
				return nil, fmt.Errorf("line %d: unknown field %q", lineNo+1, key)
			}
		}
		rec.Description = desc
		if desc == "" {
			rec.Description = rec.Name
		}

		for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) != depth {
			return nil, fmt.Errorf("line %d: indentation skips a level", lineNo+1)
		}
		if depth > 0 {
			rec.Parent, rec.HasParent = stack[len(stack)-1].id, true
		}
		stack = append(stack, open{depth: depth, id: rec.ID})

		if err := w.Record(rec); err != nil {
			return nil, err
		}
		switch {
		case haveEnd:
			ends = append(ends, ending{rec.ID, end})
		case haveDur:
			ends = append(ends, ending{rec.ID, rec.Clk + dur})
		}
	}
	for _, e := range ends {
		if err := w.RecordEnd(e.id, e.clk); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return jets.ParseBytes(buf.Bytes())
}

// MustParseTree is ParseTree for fixtures that are known to be valid.
func MustParseTree(outline string) *jets.Trace {
	tr, err := ParseTree(outline)
	if err != nil {
		panic(err)
	}
	return tr
}
