package catalog

import sqlbuilder "github.com/huandu/go-sqlbuilder"

const (
	tableFeeds    = "feeds"
	tableArticles = "articles"
)

func createFeedsTable() string {
	ctb := sqlbuilder.SQLite.NewCreateTableBuilder()
	ctb.CreateTable(tableFeeds).IfNotExists()
	ctb.Define("id", "INTEGER", "PRIMARY KEY")
	ctb.Define("title", "TEXT")
	ctb.Define("link", "TEXT")
	ctb.Define("subscribed_at", "TIMESTAMP")
	ctb.Define("created_at", "TIMESTAMP", "DEFAULT CURRENT_TIMESTAMP")
	sql, _ := ctb.Build()
	return sql
}

// The articles table is reserved; nothing reads or writes it yet.
func createArticlesTable() string {
	ctb := sqlbuilder.SQLite.NewCreateTableBuilder()
	ctb.CreateTable(tableArticles).IfNotExists()
	ctb.Define("id", "INTEGER", "PRIMARY KEY")
	ctb.Define("article_id", "INTEGER")
	ctb.Define("title", "TEXT")
	ctb.Define("link", "TEXT")
	ctb.Define("created_at", "TIMESTAMP", "DEFAULT CURRENT_TIMESTAMP")
	ctb.Define("FOREIGN KEY (article_id) REFERENCES articles (id)",
		"ON UPDATE CASCADE",
		"ON DELETE CASCADE")
	sql, _ := ctb.Build()
	return sql
}
