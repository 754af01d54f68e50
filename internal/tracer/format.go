package tracer

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"jets/internal/jets"
)

// Format is the output format of a tracer.
type Format uint8

const (
	FormatAuto Format = iota // pick by output path
	FormatText               // one human-readable line per event
	FormatJETS               // JETS line format
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatText:
		return "text"
	case FormatJETS:
		return "jets"
	default:
		return "unknown"
	}
}

// ParseFormat converts auto|text|jets.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "jets":
		return FormatJETS, nil
	default:
		return FormatAuto, errors.Newf("invalid trace format: %q (expected: auto|text|jets)", s)
	}
}

// DetectFormat picks JETS for paths like x.jets or x.jets.zst and text for
// everything else, including "-".
func DetectFormat(path string) Format {
	if strings.HasSuffix(strings.ToLower(jets.StripCodecExt(path)), ".jets") {
		return FormatJETS
	}
	return FormatText
}

// FormatEventText renders ev as
//
//	[  12.345ms] → name (detail) {k=v}
//
// with the time relative to start. Extra keys are sorted.
func FormatEventText(ev *Event, start time.Time) []byte {
	var sb strings.Builder

	elapsed := float64(ev.Time.Sub(start)) / float64(time.Millisecond)
	fmt.Fprintf(&sb, "[%9.3fms] ", elapsed)

	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}

	switch ev.Kind {
	case KindSpanBegin:
		sb.WriteString("\u2192 ") // →
	case KindSpanEnd:
		sb.WriteString("\u2190 ") // ←
	case KindPoint:
		sb.WriteString("\u2022 ") // •
	case KindHeartbeat:
		sb.WriteString("\u2661 ") // ♡
	}

	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(ev.Detail)
		sb.WriteString(")")
	}

	if len(ev.Extra) > 0 {
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(ev.Extra)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(ev.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
