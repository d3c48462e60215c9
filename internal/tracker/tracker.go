// Package tracker drives one invocation of the feed catalog: schema
// check, seeding of an empty catalog and a single user command.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matthewjhunter/cast/internal/catalog"
	"github.com/matthewjhunter/cast/internal/config"
	"github.com/matthewjhunter/cast/internal/feeds"
	"github.com/matthewjhunter/cast/internal/output"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Catalog is the subset of *catalog.Store the tracker needs.
type Catalog interface {
	Exec(ctx context.Context, name string, args ...string) ([]catalog.ResultSet, error)
	EnsureSchema(ctx context.Context) error
	Close() error
}

// Opener acquires the catalog for one invocation.
type Opener func() (Catalog, error)

// StoreOpener opens the SQLite catalog at path.
func StoreOpener(path string) Opener {
	return func() (Catalog, error) {
		return catalog.Open(path)
	}
}

type Phase int

const (
	PhaseInit Phase = iota
	PhaseSchemaEnsured
	PhaseSeeded
	PhaseCommandExecuted
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseSchemaEnsured:
		return "schema-ensured"
	case PhaseSeeded:
		return "seeded"
	case PhaseCommandExecuted:
		return "command-executed"
	case PhaseClosed:
		return "closed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Tracker struct {
	source feeds.Source
	seeds  []config.SeedFeed
	out    *output.Formatter
	phase  Phase
}

// New creates a tracker. seeds is the default feed list used to populate
// an empty catalog; it is copied and never modified.
func New(source feeds.Source, seeds []config.SeedFeed, out *output.Formatter) *Tracker {
	return &Tracker{
		source: source,
		seeds:  append([]config.SeedFeed(nil), seeds...),
		out:    out,
	}
}

// Phase reports how far the last Run progressed.
func (t *Tracker) Phase() Phase {
	return t.phase
}

func (t *Tracker) enter(p Phase) {
	t.phase = p
	log.WithField("phase", p).Debug("Tracker phase")
}

// Run opens the catalog, ensures the schema, seeds an empty catalog and
// executes cmd. The catalog is closed exactly once on every path.
//
// Command failures are logged and reported, not returned. Only failing to
// open or prepare the catalog, or an unknown operation, is returned.
func (t *Tracker) Run(ctx context.Context, open Opener, cmd Command) error {
	t.enter(PhaseInit)

	cat, err := open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close catalog")
		}
		t.enter(PhaseClosed)
	}()

	if err := cat.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare catalog: %w", err)
	}
	t.enter(PhaseSchemaEnsured)

	if _, err := t.Seed(ctx, cat); err != nil {
		if errors.Is(err, catalog.ErrUnknownOperation) {
			return err
		}
		log.WithError(err).Error("Seeding failed")
	}
	t.enter(PhaseSeeded)

	if err := t.Execute(ctx, cat, cmd); err != nil {
		if errors.Is(err, catalog.ErrUnknownOperation) {
			return err
		}
		log.WithError(err).WithField("command", cmd.Name).Error("Command failed")
		t.out.Warning("%s failed: %v", cmd.Name, err)
	}
	t.enter(PhaseCommandExecuted)
	return nil
}

// Seed populates an empty catalog from the default list. Entries whose
// feed cannot be validated are skipped. It returns the number of feeds
// stored; a non-empty catalog is left untouched.
func (t *Tracker) Seed(ctx context.Context, cat Catalog) (int, error) {
	rs, err := cat.Exec(ctx, catalog.OpCountFeeds)
	if err != nil {
		return 0, err
	}
	n, err := catalog.DecodeCount(first(rs))
	if err != nil {
		return 0, fmt.Errorf("%w: count feeds: %v", catalog.ErrQueryFailed, err)
	}
	if n > 0 {
		return 0, nil
	}

	links := lo.Uniq(lo.Map(t.seeds, func(s config.SeedFeed, _ int) string {
		return s.Link
	}))
	stored, skipped, err := t.storeValidated(ctx, cat, links)
	log.WithFields(log.Fields{
		"stored":  stored,
		"skipped": skipped,
	}).Info("Seeded empty catalog")
	return stored, err
}

// storeValidated validates each link in turn and inserts the canonical
// values of the ones that resolve. Unavailable feeds are counted as skipped.
func (t *Tracker) storeValidated(ctx context.Context, cat Catalog, links []string) (stored, skipped int, err error) {
	for _, link := range links {
		v, ferr := t.source.Fetch(ctx, link)
		if ferr != nil {
			log.WithError(ferr).WithField("link", link).Warn("Skipping unavailable feed")
			skipped++
			continue
		}
		if err := insert(ctx, cat, v); err != nil {
			return stored, skipped, err
		}
		stored++
	}
	return stored, skipped, nil
}

// Execute runs a single command against an already prepared catalog.
func (t *Tracker) Execute(ctx context.Context, cat Catalog, cmd Command) error {
	switch cmd.Name {
	case CmdList:
		return t.list(ctx, cat, cmd.SubscribedOnly)
	case CmdAdd:
		return t.add(ctx, cat, cmd.Arg)
	case CmdRemove:
		return t.mutate(ctx, cat, cmd, catalog.OpDeleteFeed)
	case CmdSubscribe:
		return t.mutate(ctx, cat, cmd, catalog.OpSubscribeFeed)
	case CmdUnsubscribe:
		return t.mutate(ctx, cat, cmd, catalog.OpUnsubscribeFeed)
	case CmdImport:
		return t.importOPML(ctx, cat, cmd.Arg)
	}
	return fmt.Errorf("unknown command %q", cmd.Name)
}

func (t *Tracker) list(ctx context.Context, cat Catalog, subscribedOnly bool) error {
	op := catalog.OpSelectFeeds
	if subscribedOnly {
		op = catalog.OpSelectSubscribedFeeds
	}
	rs, err := cat.Exec(ctx, op)
	if err != nil {
		return err
	}
	list, err := catalog.DecodeFeeds(first(rs))
	if err != nil {
		return fmt.Errorf("%w: decode feeds: %v", catalog.ErrQueryFailed, err)
	}
	return t.out.OutputFeedList(list)
}

func (t *Tracker) add(ctx context.Context, cat Catalog, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return errors.New("add requires a feed link")
	}

	v, err := t.source.Fetch(ctx, link)
	if err != nil {
		log.WithError(err).WithField("link", link).Warn("Feed not added")
		t.out.Warning("could not add %s: %v", link, err)
		return nil
	}

	if err := insert(ctx, cat, v); err != nil {
		return err
	}
	return t.out.OutputMutation(&output.MutationResult{
		Command:  CmdAdd,
		Argument: link,
		Affected: 1,
		Title:    strings.TrimSpace(v.Title),
		Link:     strings.TrimSpace(v.Link),
	})
}

// mutate runs a substring-matched operation. An empty needle would match
// every row and is rejected.
func (t *Tracker) mutate(ctx context.Context, cat Catalog, cmd Command, op string) error {
	if cmd.Arg == "" {
		return fmt.Errorf("%s requires a title or link to match", cmd.Name)
	}

	rs, err := cat.Exec(ctx, op, cmd.Arg)
	if err != nil {
		return err
	}
	affected := first(rs).RowsAffected
	log.WithFields(log.Fields{
		"command":  cmd.Name,
		"match":    cmd.Arg,
		"affected": affected,
	}).Info("Catalog updated")

	return t.out.OutputMutation(&output.MutationResult{
		Command:  cmd.Name,
		Argument: cmd.Arg,
		Affected: affected,
	})
}

func (t *Tracker) importOPML(ctx context.Context, cat Catalog, path string) error {
	if path == "" {
		return errors.New("import requires an OPML file")
	}
	links, err := feeds.ReadOPML(path)
	if err != nil {
		return err
	}

	stored, skipped, err := t.storeValidated(ctx, cat, links)
	if err != nil {
		return err
	}
	return t.out.OutputMutation(&output.MutationResult{
		Command:  CmdImport,
		Argument: path,
		Affected: int64(stored),
		Skipped:  skipped,
	})
}

func insert(ctx context.Context, cat Catalog, v feeds.Validated) error {
	title, link := strings.TrimSpace(v.Title), strings.TrimSpace(v.Link)
	_, err := cat.Exec(ctx, catalog.OpInsertFeed, title, link)
	return err
}

func first(rs []catalog.ResultSet) catalog.ResultSet {
	if len(rs) == 0 {
		return catalog.ResultSet{}
	}
	return rs[0]
}
