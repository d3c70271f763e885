package mpedit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder receives every buffer a Document saves. history.Store implements it.
type Recorder interface {
	Record(name string, data []byte) (seq uint64, recorded bool, err error)
}

type Options struct {
	Context context.Context
	// Name identifies the document in logs and in the Recorder.
	Name    string
	Logger  *slog.Logger
	History Recorder
	Now     func() time.Time
}

// Generation is everything the UI shows for one version of the buffer. It is
// never modified; loading or saving produces a new one.
type Generation struct {
	Seq       uint64
	Loaded    time.Time
	Tree      *Tree
	Formatted string
	Positions PositionTable
	Index     *Index
}

// NewGeneration decodes data and derives the formatted text and index.
func NewGeneration(data []byte) (*Generation, error) {
	tree, err := Decode(data)
	if err != nil {
		return nil, err
	}
	formatted, pt, err := Format(tree.Text)
	if err != nil {
		return nil, err
	}
	return &Generation{
		Tree:      tree,
		Formatted: formatted,
		Positions: pt,
		Index:     NewIndex(tree.Nodes),
	}, nil
}

func (g *Generation) Data() []byte {
	return g.Tree.Data
}

func (g *Generation) Root() *Node {
	return g.Tree.Root
}

func (g *Generation) NodeAtByte(off int) *Node {
	return g.Index.NodeAtByte(off)
}

func (g *Generation) NodeAtFormatted(off int) *Node {
	return g.Index.NodeAtFormatted(g.Positions, off)
}

// FormattedRange returns the node's range in the formatted text.
func (g *Generation) FormattedRange(n *Node) (start, end int) {
	return g.Positions.ToFormatted(n.TextStart), g.Positions.ToFormatted(n.TextEnd)
}

// Document holds the current generation of one open buffer. Readers call
// Current at any time; Load and Save swap in a complete new generation.
type Document struct {
	ctx     context.Context
	name    string
	logger  *slog.Logger
	history Recorder
	now     func() time.Time

	saveMu sync.Mutex
	seq    atomic.Uint64
	cur    atomic.Pointer[Generation]
}

func NewDocument(o Options) *Document {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Document{
		ctx:     o.Context,
		name:    o.Name,
		logger:  o.Logger,
		history: o.History,
		now:     o.Now,
	}
}

// Current returns the latest generation, or nil before the first Load.
func (d *Document) Current() *Generation {
	return d.cur.Load()
}

// Load replaces the document contents with data.
func (d *Document) Load(data []byte) (*Generation, error) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()
	g, err := d.install(data)
	if err != nil {
		d.logger.LogAttrs(d.ctx, slog.LevelWarn, "mpedit: load failed", slog.String("doc", d.name), slog.Int("size", len(data)), slog.Any("err", err))
		return nil, err
	}
	d.logger.LogAttrs(d.ctx, slog.LevelDebug, "mpedit: loaded", slog.String("doc", d.name), slog.Uint64("gen", g.Seq), slog.Int("size", len(data)), slog.Int("nodes", len(g.Tree.Nodes)))
	return g, nil
}

// Save rebuilds the buffer from edited text, decodes the result into a fresh
// generation and makes it current. A shape mismatch is not an error: the
// text is then encoded from scratch and a warning is logged.
func (d *Document) Save(edited string) (*Generation, error) {
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	prev := d.cur.Load()
	var out []byte
	var err error
	if prev == nil {
		out, err = EncodeText(edited)
	} else {
		out, err = RebuildStrict(edited, prev.Root(), prev.Data())
		var sme *StructureMismatchError
		if errors.As(err, &sme) {
			d.logger.LogAttrs(d.ctx, slog.LevelWarn, "mpedit: structure changed, encoding from scratch", slog.String("doc", d.name), slog.String("path", sme.Path), slog.String("reason", sme.Error()))
			out, err = EncodeText(edited)
		}
	}
	if err != nil {
		return nil, err
	}

	g, err := d.install(out)
	if err != nil {
		// our own encoder produced something we cannot read back
		d.logger.LogAttrs(d.ctx, slog.LevelError, "mpedit: rebuilt buffer does not decode", slog.String("doc", d.name), hexAttr("data", out), slog.Any("err", err))
		return nil, err
	}
	if prev != nil {
		d.logger.LogAttrs(d.ctx, slog.LevelDebug, "mpedit: saved", slog.String("doc", d.name), slog.Uint64("gen", g.Seq), slog.Int("old_size", len(prev.Data())), slog.Int("new_size", len(out)))
	}

	if d.history != nil {
		seq, recorded, err := d.history.Record(d.name, out)
		if err != nil {
			return g, err
		}
		if recorded {
			d.logger.LogAttrs(d.ctx, slog.LevelDebug, "mpedit: recorded history", slog.String("doc", d.name), slog.Uint64("seq", seq))
		}
	}
	return g, nil
}

func (d *Document) install(data []byte) (*Generation, error) {
	g, err := NewGeneration(data)
	if err != nil {
		return nil, err
	}
	g.Seq = d.seq.Add(1)
	g.Loaded = d.now()
	d.cur.Store(g)
	return g, nil
}
