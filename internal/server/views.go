package server

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
)

//go:embed views
var viewsFS embed.FS

func newViewEngine() *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("timestamp", func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	})
	engine.AddFunc("tags", func(hashtags string) []string {
		return strings.Fields(hashtags)
	})
	engine.AddFunc("errorFor", func(errs map[string]string, field string) string {
		return errs[field]
	})
	return engine
}
