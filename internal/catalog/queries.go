package catalog

import (
	"fmt"
	"strings"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
)

// Operation names understood by the default registry.
const (
	OpHasTable              = "hasTable"
	OpCreateTableFeeds      = "createTableFeeds"
	OpCreateTableArticles   = "createTableArticles"
	OpSelectFeeds           = "selectFeeds"
	OpSelectSubscribedFeeds = "selectSubscribedFeeds"
	OpCountFeeds            = "countFeeds"
	OpInsertFeed            = "insertFeed"
	OpDeleteFeed            = "deleteFeed"
	OpSubscribeFeed         = "subscribeFeed"
	OpUnsubscribeFeed       = "unsubscribeFeed"
)

var feedColumns = []string{"id", "title", "link", "subscribed_at", "created_at"}

// Statement is one rendered SQL statement with its bound arguments.
type Statement struct {
	SQL   string
	Args  []any
	Query bool // true when the statement returns rows
}

// Query renders the statements of a named operation from its positional arguments.
type Query func(args []string) ([]Statement, error)

// Registry maps operation names to their query templates.
type Registry map[string]Query

// DefaultRegistry returns the fixed set of catalog operations.
func DefaultRegistry() Registry {
	return Registry{
		OpHasTable:              hasTable,
		OpCreateTableFeeds:      ddl(createFeedsTable),
		OpCreateTableArticles:   ddl(createArticlesTable),
		OpSelectFeeds:           selectFeeds,
		OpSelectSubscribedFeeds: selectSubscribedFeeds,
		OpCountFeeds:            countFeeds,
		OpInsertFeed:            insertFeed,
		OpDeleteFeed:            deleteFeed,
		OpSubscribeFeed:         setSubscribed(sqlbuilder.Raw("CURRENT_TIMESTAMP")),
		OpUnsubscribeFeed:       setSubscribed(nil),
	}
}

// Render looks up name and renders its statements.
func (r Registry) Render(name string, args []string) ([]Statement, error) {
	q, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	stmts, err := q(args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrQueryFailed, name, err)
	}
	return stmts, nil
}

func arity(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func ddl(build func() string) Query {
	return func(args []string) ([]Statement, error) {
		if err := arity(args, 0); err != nil {
			return nil, err
		}
		return []Statement{{SQL: build()}}, nil
	}
}

func hasTable(args []string) ([]Statement, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("name").From("sqlite_master").
		Where(sb.Equal("type", "table"), sb.Equal("name", args[0]))
	sql, bound := sb.Build()
	return []Statement{{SQL: sql, Args: bound, Query: true}}, nil
}

func selectFeeds(args []string) ([]Statement, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(feedColumns...).From(tableFeeds)
	sql, bound := sb.Build()
	return []Statement{{SQL: sql, Args: bound, Query: true}}, nil
}

func selectSubscribedFeeds(args []string) ([]Statement, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(feedColumns...).From(tableFeeds).Where(sb.IsNotNull("subscribed_at"))
	sql, bound := sb.Build()
	return []Statement{{SQL: sql, Args: bound, Query: true}}, nil
}

func countFeeds(args []string) ([]Statement, error) {
	if err := arity(args, 0); err != nil {
		return nil, err
	}
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*) AS count").From(tableFeeds)
	sql, bound := sb.Build()
	return []Statement{{SQL: sql, Args: bound, Query: true}}, nil
}

func insertFeed(args []string) ([]Statement, error) {
	if err := arity(args, 2); err != nil {
		return nil, err
	}
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto(tableFeeds).Cols("title", "link").Values(args[0], args[1])
	sql, bound := ib.Build()
	return []Statement{{SQL: sql, Args: bound}}, nil
}

func deleteFeed(args []string) ([]Statement, error) {
	if err := arity(args, 1); err != nil {
		return nil, err
	}
	db := sqlbuilder.SQLite.NewDeleteBuilder()
	db.DeleteFrom(tableFeeds).Where(matchTitleOrLink(&db.Cond, args[0]))
	sql, bound := db.Build()
	return []Statement{{SQL: sql, Args: bound}}, nil
}

func setSubscribed(value any) Query {
	return func(args []string) ([]Statement, error) {
		if err := arity(args, 1); err != nil {
			return nil, err
		}
		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update(tableFeeds).
			Set(ub.Assign("subscribed_at", value)).
			Where(matchTitleOrLink(&ub.Cond, args[0]))
		sql, bound := ub.Build()
		return []Statement{{SQL: sql, Args: bound}}, nil
	}
}

// matchTitleOrLink selects rows whose title or link contains needle.
// LIKE wildcards in needle are escaped so the match is a literal substring.
func matchTitleOrLink(cond *sqlbuilder.Cond, needle string) string {
	pattern := "%" + escapeLike(needle) + "%"
	return cond.Or(
		fmt.Sprintf(`link LIKE %s ESCAPE '\'`, cond.Args.Add(pattern)),
		fmt.Sprintf(`title LIKE %s ESCAPE '\'`, cond.Args.Add(pattern)),
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
