// Package tracegen writes synthetic RISC-V SoC pipeline traces: clusters
// contain cores, cores contain hardware threads and threads retire
// instructions, each with one event per pipeline stage.
//
// Output is a pure function of Config: the random source is a 64-bit LCG
// seeded from the configuration.
package tracegen

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"
	"github.com/valyala/fastjson"

	"jets/internal/jets"
	"jets/internal/trace"
)

const (
	Version = "2.0"
	Tool    = "jets-tracegen v0.1"

	// startClk is where the first thread's instructions begin.
	startClk = int64(1000)
	basePC   = uint64(0xFFFFFFFF00000000)
)

// Config sizes the generated SoC.
type Config struct {
	Clusters int
	Cores    int // per cluster
	Threads  int // per core
	InstrMin int // instructions per thread, inclusive range
	InstrMax int
}

func DefaultConfig() Config {
	return Config{Clusters: 1, Cores: 1, Threads: 1, InstrMin: 100, InstrMax: 100}
}

func (c Config) Validate() error {
	switch {
	case c.Clusters < 1 || c.Cores < 1 || c.Threads < 1:
		return errors.Newf("clusters, cores and threads must be positive (got %d, %d, %d)", c.Clusters, c.Cores, c.Threads)
	case c.InstrMin < 0 || c.InstrMax < c.InstrMin:
		return errors.Newf("invalid instruction range %d:%d", c.InstrMin, c.InstrMax)
	}
	return nil
}

// Seed derives the generator seed from the configuration.
func (c Config) Seed() uint64 {
	return uint64(c.Clusters)*1000 + uint64(c.Cores)*100 + uint64(c.Threads)*10 + uint64(c.InstrMin)
}

// ParseInstrRange parses "N" or "N:M".
func ParseInstrRange(s string) (lo, hi int, err error) {
	a, b, ranged := strings.Cut(s, ":")
	if lo, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, errors.Wrapf(err, "instruction count %q", s)
	}
	hi = lo
	if ranged {
		if hi, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
			return 0, 0, errors.Wrapf(err, "instruction count %q", s)
		}
	}
	if lo < 0 || hi < lo {
		return 0, 0, errors.Newf("invalid instruction range %q", s)
	}
	return lo, hi, nil
}

// lcg is the generator's random source.
type lcg struct{ state uint64 }

func (r *lcg) next() uint64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}

// intn returns a value in [lo, hi).
func (r *lcg) intn(lo, hi int) int {
	return int(r.next()%uint64(hi-lo)) + lo
}

func (r *lcg) int64n(lo, hi int64) int64 {
	return int64(r.next()%uint64(hi-lo)) + lo
}

type itemKind uint8

const (
	itemRecord itemKind = iota
	itemEvent
	itemEnd
)

// item is one buffered line of a thread; a thread's lines are emitted in
// clock order.
type item struct {
	kind   itemKind
	clk    int64
	record jets.RecordLine
	event  jets.EventLine
	end    trace.ID
}

// Stats summarizes what Generate wrote.
type Stats struct {
	Records      uint64
	Events       uint64
	Instructions int
	EndClk       int64
}

type generator struct {
	w      *jets.Writer
	cfg    Config
	rng    lcg
	nextID trace.ID
	clk    int64
	arena  fastjson.Arena
	instrs int
}

// Generate writes a complete trace to w, header through footer. It does
// not close w.
func Generate(w *jets.Writer, cfg Config) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	g := &generator{w: w, cfg: cfg, rng: lcg{state: cfg.Seed()}, nextID: 1, clk: startClk}
	if err := g.run(); err != nil {
		return Stats{}, err
	}
	records, _, events := w.Counts()
	return Stats{Records: records, Events: events, Instructions: g.instrs, EndClk: g.clk}, nil
}

// WriteFile generates a trace into path, compressed according to its
// extension.
func WriteFile(path string, cfg Config) (Stats, error) {
	w, err := jets.Create(path)
	if err != nil {
		return Stats{}, err
	}
	st, err := Generate(w, cfg)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return st, err
}

func (g *generator) id() trace.ID {
	id := g.nextID
	g.nextID++
	return id
}

func (g *generator) header() trace.Value {
	a := &g.arena
	a.Reset()
	o := a.NewObject()
	o.Set("architecture", a.NewString("RISC-V Pipeline"))
	o.Set("clock_frequency_mhz", a.NewNumberInt(1000))
	o.Set("hardware_model", a.NewString("RISC-V SoC"))
	o.Set("num_clusters", a.NewNumberInt(g.cfg.Clusters))
	o.Set("num_cores", a.NewNumberInt(g.cfg.Cores))
	o.Set("num_threads", a.NewNumberInt(g.cfg.Threads))
	o.Set("tool", a.NewString(Tool))
	return o.MarshalTo(nil)
}

func (g *generator) run() error {
	if err := g.w.Header(Version, g.header()); err != nil {
		return err
	}

	var clusters, cores []trace.ID
	for ci := range g.cfg.Clusters {
		cluster := g.id()
		clusters = append(clusters, cluster)
		if err := g.w.Record(jets.RecordLine{
			ID:          cluster,
			Kind:        "Cluster",
			Name:        fmt.Sprintf("cluster_%d", ci),
			Description: fmt.Sprintf("Cluster %d", ci),
		}); err != nil {
			return err
		}
		for co := range g.cfg.Cores {
			core := g.id()
			cores = append(cores, core)
			if err := g.w.Record(jets.RecordLine{
				ID:          core,
				Parent:      cluster,
				HasParent:   true,
				Kind:        "Core",
				Name:        fmt.Sprintf("core_%d", co),
				Description: fmt.Sprintf("Core %d", co),
			}); err != nil {
				return err
			}
			for th := range g.cfg.Threads {
				if err := g.thread(core, ci, co, th); err != nil {
					return err
				}
			}
		}
	}

	for _, id := range slices.Backward(cores) {
		if err := g.w.RecordEnd(id, g.clk); err != nil {
			return err
		}
	}
	for _, id := range slices.Backward(clusters) {
		if err := g.w.RecordEnd(id, g.clk); err != nil {
			return err
		}
	}
	end := g.clk
	return g.w.Footer(&end)
}

func (g *generator) pc(cluster, core, thread int) (uint64, error) {
	off, err := safecast.Conv[uint64](cluster*0x100000 + core*0x10000 + thread*0x1000)
	if err != nil {
		return 0, errors.Wrap(err, "program counter")
	}
	return basePC + off, nil
}

func (g *generator) thread(core trace.ID, ci, co, th int) error {
	n := g.cfg.InstrMin
	if g.cfg.InstrMin != g.cfg.InstrMax {
		n = g.rng.intn(g.cfg.InstrMin, g.cfg.InstrMax+1)
	}
	pc, err := g.pc(ci, co, th)
	if err != nil {
		return err
	}

	thread := g.id()
	items := []item{{kind: itemRecord, record: jets.RecordLine{
		ID:          thread,
		Parent:      core,
		HasParent:   true,
		Kind:        "Thread",
		Name:        fmt.Sprintf("thread_%d", th),
		Description: fmt.Sprintf("Thread %d", th),
	}}}

	start := g.clk
	for range n {
		items = g.instruction(items, thread, pc, start)
		pc += 4
		start += g.rng.int64n(1, 3)
	}
	g.instrs += n

	end := items[0].clk
	for _, it := range items {
		end = max(end, it.clk)
	}
	end++
	items = append(items, item{kind: itemEnd, clk: end, end: thread})

	slices.SortStableFunc(items, func(a, b item) int { return cmp.Compare(a.clk, b.clk) })
	for _, it := range items {
		var err error
		switch it.kind {
		case itemRecord:
			err = g.w.Record(it.record)
		case itemEvent:
			err = g.w.Event(it.event)
		case itemEnd:
			err = g.w.RecordEnd(it.end, it.clk)
		}
		if err != nil {
			return err
		}
	}
	g.clk = end
	return nil
}

// instruction appends the record, pipeline events and end of one
// instruction starting at clk.
func (g *generator) instruction(items []item, thread trace.ID, pc uint64, clk int64) []item {
	id := g.id()
	in := instructions[g.rng.intn(0, len(instructions))]
	asm := g.disassemble(in)

	a := &g.arena
	a.Reset()
	data := a.NewObject()
	data.Set("disassembly", a.NewString(asm))
	data.Set("opcode", a.NewString(in.mnemonic))
	data.Set("pc", a.NewString(fmt.Sprintf("0x%016X", pc)))

	items = append(items, item{kind: itemRecord, clk: clk, record: jets.RecordLine{
		ID:          id,
		Parent:      thread,
		HasParent:   true,
		Clk:         clk,
		Kind:        "Instruction",
		Name:        fmt.Sprintf("0x%016X-%s", pc, in.mnemonic),
		Description: asm,
		Data:        data.MarshalTo(nil),
	}})

	at := clk
	stage := func(s stageInfo) {
		items = append(items, item{kind: itemEvent, clk: at, event: jets.EventLine{
			RecordID:    id,
			Clk:         at,
			Name:        s.name,
			Description: s.desc,
		}})
	}

	for _, s := range frontEnd {
		stage(s)
		at++
	}
	if g.rng.intn(0, 10) < 2 {
		at += g.rng.int64n(1, 4)
	}
	stage(stageIssue)
	at++
	stage(stageRegRead)
	at++
	stage(stageExecute)
	at += g.rng.int64n(1, 3)
	if in.memory {
		stage(stageMemory)
		at += g.rng.int64n(2, 6)
	}
	stage(stageWriteback)
	at++
	stage(stageCommit)

	return append(items, item{kind: itemEnd, clk: at, end: id})
}
